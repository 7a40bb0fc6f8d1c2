package models

// ReadVerdict is the tri-state summary of readability over a set of items.
type ReadVerdict int

const (
	// VerdictNone means no item in the set is readable. A folder without
	// any file descendant also yields VerdictNone: there is nothing to read.
	VerdictNone ReadVerdict = iota
	// VerdictSome means a strict, non-empty subset is readable.
	VerdictSome
	// VerdictAll means every item in the set is readable.
	VerdictAll
)

func (v ReadVerdict) String() string {
	switch v {
	case VerdictAll:
		return "ALL"
	case VerdictSome:
		return "SOME"
	default:
		return "NONE"
	}
}

// MarshalText renders the verdict for JSON payloads.
func (v ReadVerdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// VerdictFromCounts derives a verdict from readable/total counters.
// Zero total collapses to NONE.
func VerdictFromCounts(readable, total int) ReadVerdict {
	switch {
	case total == 0 || readable == 0:
		return VerdictNone
	case readable == total:
		return VerdictAll
	default:
		return VerdictSome
	}
}

// CombineVerdicts folds child verdicts under the aggregation lattice:
// ALL iff all children are ALL, NONE iff all are NONE, SOME otherwise.
// An empty sequence yields NONE.
func CombineVerdicts(verdicts ...ReadVerdict) ReadVerdict {
	if len(verdicts) == 0 {
		return VerdictNone
	}
	allAll, allNone := true, true
	for _, v := range verdicts {
		if v != VerdictAll {
			allAll = false
		}
		if v != VerdictNone {
			allNone = false
		}
	}
	switch {
	case allAll:
		return VerdictAll
	case allNone:
		return VerdictNone
	default:
		return VerdictSome
	}
}
