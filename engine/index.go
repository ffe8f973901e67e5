package engine

// RowGroupEntry maps one row group to its global row offset range
// [StartRow, EndRow). Entries are contiguous: entry i's EndRow is entry
// i+1's StartRow.
type RowGroupEntry struct {
	ID       int
	StartRow int64
	EndRow   int64
}

// BuildIndex derives the row group index from the footer's per group row
// counts. Pure, no I/O, built once per file load and read-only after.
func BuildIndex(rowCounts []int64) []RowGroupEntry {
	index := make([]RowGroupEntry, 0, len(rowCounts))
	var offset int64
	for i, n := range rowCounts {
		index = append(index, RowGroupEntry{
			ID:       i,
			StartRow: offset,
			EndRow:   offset + n,
		})
		offset += n
	}
	return index
}

// Locate returns the entries overlapping the global row range
// [startRow, endRow), in ascending row group order. The ordering matters:
// page stitching concatenates decoded groups positionally.
// An empty range or an empty index (empty file) always yields nil.
func Locate(index []RowGroupEntry, startRow, endRow int64) []RowGroupEntry {
	if startRow >= endRow {
		return nil
	}
	var overlapping []RowGroupEntry
	for _, entry := range index {
		if entry.EndRow > startRow && entry.StartRow < endRow {
			overlapping = append(overlapping, entry)
		}
	}
	return overlapping
}
