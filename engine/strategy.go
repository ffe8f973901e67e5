package engine

// Strategy is how a page gets materialized.
type Strategy int

const (
	// FullLoad decodes the entire file once and slices in memory. Simple and
	// exact, but O(total rows) per page transition.
	FullLoad Strategy = iota
	// PartialLoad decodes only the row groups overlapping the requested
	// window, keeping per page cost bounded by the overlapping groups.
	PartialLoad
)

// DefaultFullLoadThreshold mirrors the original tool's default.
const DefaultFullLoadThreshold int64 = 100_000

func (s Strategy) String() string {
	if s == FullLoad {
		return "full_load"
	}
	return "partial_load"
}

// SelectStrategy picks FullLoad for files at or under the threshold.
// The threshold is frozen per session so paging stays consistent mid-browse.
func SelectStrategy(totalRows, threshold int64) Strategy {
	if totalRows <= threshold {
		return FullLoad
	}
	return PartialLoad
}
