package rollup

import "fmt"

// Scheme identifies one of the three fixed grouping-key shapes. The fold
// step branches on the scheme tag, never on the runtime shape of a row, so
// a malformed query result cannot silently land in the wrong nesting level.
type Scheme int

const (
	// ByTime groups on (time period, sentiment)
	ByTime Scheme = iota

	// ByAge groups on (derived age group, sentiment)
	ByAge

	// ByAgeTime groups on (derived age group, time period, sentiment)
	ByAgeTime
)

// Arity is the size of the scheme's grouping-key tuple, sentiment included.
// It is a static property of the scheme, not inferred from data.
func (s Scheme) Arity() int {
	if s == ByAgeTime {
		return 3
	}
	return 2
}

func (s Scheme) String() string {
	switch s {
	case ByTime:
		return "by-time"
	case ByAge:
		return "by-age"
	case ByAgeTime:
		return "by-age-time"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

// AgeGroupUnknown is the fallback bucket for brackets outside the mapping.
const AgeGroupUnknown = "Unknown"

// AgeGroup coarsens a raw age bracket into one of three groups. Brackets
// outside the mapping fall back to Unknown.
//
// The presentation layer carries its own mapping that passes unmapped
// brackets through unchanged; the two policies differ per consumer and are
// deliberately kept separate.
func AgeGroup(bracket string) string {
	switch bracket {
	case "0-20", "21-30":
		return "0-30"
	case "31-45", "46-60":
		return "31-60"
	case "60-70", "70-100":
		return "61-100"
	}
	return AgeGroupUnknown
}
