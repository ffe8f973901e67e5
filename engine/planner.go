package engine

// PagePlan is the minimal physical work for one page: the overlapping row
// groups, and where inside their concatenation the page starts.
type PagePlan struct {
	Entries []RowGroupEntry
	// LocalOffset is StartRow minus the first entry's StartRow, the slice
	// offset into the concatenated decoded groups
	LocalOffset int64
	StartRow    int64
	EndRow      int64
}

// PlanPage maps a (page, page size) request onto the index. The page number
// is assumed already clamped to [1, totalPages]. An empty file yields a plan
// with no entries.
func PlanPage(index []RowGroupEntry, page, pageSize, totalRows int64) PagePlan {
	startRow := (page - 1) * pageSize
	endRow := startRow + pageSize
	if endRow > totalRows {
		endRow = totalRows
	}
	if startRow > totalRows {
		startRow = totalRows
	}

	plan := PagePlan{
		StartRow: startRow,
		EndRow:   endRow,
	}
	if startRow >= endRow {
		return plan
	}

	plan.Entries = Locate(index, startRow, endRow)
	if len(plan.Entries) > 0 {
		plan.LocalOffset = startRow - plan.Entries[0].StartRow
	}
	return plan
}

// RowGroupIDs is a convenience for logging and tests.
func (p PagePlan) RowGroupIDs() []int {
	ids := make([]int, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.ID
	}
	return ids
}
