package duration

import (
	"regexp"
	"strconv"

	"gymnasier-export/internal/maybe"
)

// only the leading "PT[nH][nM]" part of a token is considered, anything after
// it (seconds for example) is ignored.
var tokenRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?`)

// ParseMinutes converts a trip duration token like "PT1H15M" into whole
// minutes. Empty or non-matching tokens are absent.
func ParseMinutes(token string) maybe.Value[int] {
	if token == "" {
		return maybe.None[int]()
	}
	match := tokenRegex.FindStringSubmatch(token)
	if match == nil {
		return maybe.None[int]()
	}

	hours, err := component(match[1])
	if err != nil {
		return maybe.Failed[int](err)
	}
	minutes, err := component(match[2])
	if err != nil {
		return maybe.Failed[int](err)
	}
	return maybe.Some(hours*60 + minutes)
}

func component(digits string) (int, error) {
	if digits == "" {
		return 0, nil
	}
	// can only fail on overflow, the regex guarantees digits
	return strconv.Atoi(digits)
}
