package engine

import (
	"context"
	"fmt"
)

type (
	// Row is a single decoded row, keyed by column name. Values are the
	// decoded parquet base values (string, int64, float64, bool, ...) or nil
	// for nulls. Rows handed out by the engine must be treated as read-only,
	// they may be shared with the row group cache.
	Row = map[string]any

	Column struct {
		Name     string
		Type     string
		Nullable bool
	}

	// FileMetadata is everything the footer tells us about a file without
	// decoding any column data. Built once per file load, immutable after.
	FileMetadata struct {
		TotalRows         int64
		RowGroupCount     int
		RowGroupRowCounts []int64
		// RowGroupByteSizes is the total (uncompressed) byte size per row
		// group, used for the approximate size export
		RowGroupByteSizes []int64
		Columns           []Column
		// SerializedSize is the byte size of the serialized footer
		SerializedSize int64
		FormatVersion  string
		CreatedBy      string
	}

	// PageRequest asks for a fixed-size window of rows.
	// Page is 1-indexed, an out of range value is clamped to the last valid
	// page rather than rejected. Columns nil means all columns.
	PageRequest struct {
		Page     int64
		PageSize int64
		Columns  []string
	}

	// Page is the materialized result of a PageRequest. Rows are in on-disk
	// physical order restricted to the requested window.
	Page struct {
		Rows       []Row    `json:"rows"`
		Columns    []string `json:"columns"`
		PageNum    int64    `json:"page"`
		TotalPages int64    `json:"total_pages"`
		// TotalRows is the row count the pagination was computed over: the
		// whole file normally, the match count when filtered
		TotalRows int64 `json:"total_rows"`
		// FullScan warns the caller that producing this page decoded the
		// entire file (the filter path always does)
		FullScan bool `json:"full_scan"`
	}

	FilterSpec struct {
		Column string
		Value  string
	}

	// Decoder is the narrow contract the engine needs from the parquet
	// format library: footer metadata up front, then row group scoped
	// decodes. Implementations must support concurrent reads.
	Decoder interface {
		Metadata() FileMetadata
		// ReadRowGroup decodes exactly one row group, restricted to the
		// given columns (nil means all), in on-disk row order
		ReadRowGroup(ctx context.Context, id int, columns []string) ([]Row, error)
		// ReadAll decodes the entire file, restricted to the given columns
		ReadAll(ctx context.Context, columns []string) ([]Row, error)
		// ID uniquely identifies the open file, it changes when the
		// underlying bytes change
		ID() string
		Close() error
	}
)

// Validate checks the structural invariants the rest of the engine relies on.
func (m FileMetadata) Validate() error {
	if m.TotalRows < 0 {
		return fmt.Errorf("%w: negative row count %d", ErrCorruptFile, m.TotalRows)
	}
	if len(m.RowGroupRowCounts) != m.RowGroupCount {
		return fmt.Errorf("%w: %d row group counts for %d row groups", ErrCorruptFile, len(m.RowGroupRowCounts), m.RowGroupCount)
	}
	var sum int64
	for i, n := range m.RowGroupRowCounts {
		if n < 0 {
			return fmt.Errorf("%w: negative row count in row group %d", ErrCorruptFile, i)
		}
		sum += n
	}
	if sum != m.TotalRows {
		return fmt.Errorf("%w: row group counts sum to %d, footer says %d rows", ErrCorruptFile, sum, m.TotalRows)
	}
	seen := make(map[string]struct{}, len(m.Columns))
	for _, col := range m.Columns {
		if _, exists := seen[col.Name]; exists {
			return fmt.Errorf("%w: duplicate column %q", ErrCorruptFile, col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}

// TotalPages is the page count for a page size, never less than 1 so an empty
// file still has a valid (empty) page 1.
func (m FileMetadata) TotalPages(pageSize int64) int64 {
	return totalPagesFor(m.TotalRows, pageSize)
}

// ApproxSizeBytes sums the serialized footer size with each row group's total
// byte size, matching the sizing convention of the metadata export.
func (m FileMetadata) ApproxSizeBytes() int64 {
	total := m.SerializedSize
	for _, b := range m.RowGroupByteSizes {
		total += b
	}
	return total
}

func (m FileMetadata) ApproxSizeMB() float64 {
	return float64(m.ApproxSizeBytes()) / (1024 * 1024)
}

func (m FileMetadata) HasColumn(name string) bool {
	for _, col := range m.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the ordered column names of the schema.
func (m FileMetadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		names[i] = col.Name
	}
	return names
}

func totalPagesFor(totalRows, pageSize int64) int64 {
	if pageSize <= 0 {
		return 1
	}
	pages := (totalRows + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func clampPage(page, totalPages int64) int64 {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
