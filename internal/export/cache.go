package export

import (
	"gymnasier-export/internal/ednia"
	"gymnasier-export/internal/maybe"
	"gymnasier-export/internal/resrobot"
)

// Travel is what was learned about getting to a school: the stop it
// resolved to and the trip duration from the origin, both possibly absent.
type Travel struct {
	Stop    maybe.Value[resrobot.Stop]
	Minutes maybe.Value[int]
}

// TravelTimeCache holds the travel resolved for each school id during one
// run. Entries are never evicted, a run visits each school once or twice at
// most.
type TravelTimeCache struct {
	entries map[ednia.SchoolId]Travel
}

func NewTravelTimeCache() *TravelTimeCache {
	return &TravelTimeCache{entries: make(map[ednia.SchoolId]Travel)}
}

func (c *TravelTimeCache) Get(id ednia.SchoolId) (Travel, bool) {
	travel, ok := c.entries[id]
	return travel, ok
}

func (c *TravelTimeCache) Put(id ednia.SchoolId, travel Travel) {
	c.entries[id] = travel
}

func (c *TravelTimeCache) Len() int {
	return len(c.entries)
}
