package stopfinder

import (
	"context"

	"gymnasier-export/internal/maybe"
	"gymnasier-export/internal/resrobot"
)

// StopLookup resolves free text to a stop, *resrobot.Client implements it.
type StopLookup interface {
	LookupStop(ctx context.Context, query string) maybe.Value[resrobot.Stop]
}

// Queries returns the queries FindStopForSchool tries, in order. School names
// rarely match stop names, so each query trades precision for recall.
func Queries(schoolName, district string) []string {
	queries := []string{
		schoolName,
		schoolName + " Stockholm",
	}
	if district != "" {
		queries = append(queries, district+" Stockholm")
	}
	return queries
}

// FindStopForSchool returns the first stop found by Queries, so at most three
// rate limited lookups are made per school.
func FindStopForSchool(ctx context.Context, lookup StopLookup, schoolName, district string) maybe.Value[resrobot.Stop] {
	for _, query := range Queries(schoolName, district) {
		stop := lookup.LookupStop(ctx, query)
		if stop.Present() {
			return stop
		}
	}
	return maybe.None[resrobot.Stop]()
}
