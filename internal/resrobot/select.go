package resrobot

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// SelectStop picks the first stop whose name mentions Stockholm (in any
// casing), otherwise whatever the first entry of the response is.
func SelectStop(stops []Stop) (Stop, bool) {
	entries := make([]locationEntry, len(stops))
	for i := range stops {
		entries[i] = locationEntry{StopLocation: &stops[i]}
	}
	return selectStop(entries)
}

func selectStop(entries []locationEntry) (Stop, bool) {
	for _, e := range entries {
		if e.StopLocation == nil {
			continue
		}
		if strings.Contains(strings.ToLower(e.StopLocation.Name), "stockholm") {
			return *e.StopLocation, true
		}
	}

	if len(entries) > 0 && entries[0].StopLocation != nil {
		return *entries[0].StopLocation, true
	}
	return Stop{}, false
}

// Similarity scores how close a stop name is to the query it was found with,
// 1 is an exact match. Only used for diagnostics, it never affects selection.
func Similarity(query, stopName string) float64 {
	return matchr.JaroWinkler(strings.ToLower(query), strings.ToLower(stopName), false)
}
