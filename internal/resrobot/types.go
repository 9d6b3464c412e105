package resrobot

// Stop is a public transport directory entry.
type Stop struct {
	ExtId string `json:"extId"`
	Name  string `json:"name"`
}

// location.name may return coordinate locations next to stops, those
// entries have no StopLocation.
type locationEntry struct {
	StopLocation *Stop `json:"StopLocation"`
}

type locationNameResponse struct {
	Locations []locationEntry `json:"stopLocationOrCoordLocation"`
}

type trip struct {
	Duration string `json:"duration"`
}

type tripResponse struct {
	Trips []trip `json:"Trip"`
}
