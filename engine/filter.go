package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/parquetview/utils"
)

// ReadFilteredPage is the slow path: it always decodes the whole file
// regardless of strategy, applies the predicate, and re-paginates the
// matches. The returned page carries FullScan=true so the caller can warn
// that this cost O(total rows).
//
// The filter column is decoded even when not part of the selection, but only
// selected columns appear in the result rows.
func (s *Session) ReadFilteredPage(ctx context.Context, req PageRequest, filter FilterSpec) (*Page, error) {
	if req.PageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	if !s.meta.HasColumn(filter.Column) {
		return nil, &ErrInvalidColumn{Column: filter.Column}
	}
	cols, err := s.resolveColumns(req.Columns)
	if err != nil {
		return nil, err
	}

	readCols := cols
	if !utils.ContainsString(cols, filter.Column) {
		readCols = append(append([]string{}, cols...), filter.Column)
	}

	start := time.Now()
	rows, err := s.dec.ReadAll(ctx, readCols)
	if err != nil {
		return nil, fmt.Errorf("error in ReadAll: %w", err)
	}

	matched := FilterRows(rows, filter)

	totalPages := totalPagesFor(int64(len(matched)), req.PageSize)
	pageNum := clampPage(req.Page, totalPages)
	window := sliceRows(matched, (pageNum-1)*req.PageSize, req.PageSize)

	// strip the filter column back out if it was only decoded for matching
	if len(readCols) != len(cols) {
		projected := make([]Row, len(window))
		for i, row := range window {
			pr := make(Row, len(cols))
			for _, col := range cols {
				pr[col] = row[col]
			}
			projected[i] = pr
		}
		window = projected
	}

	logger.Debug().
		Str("fileID", s.dec.ID()).
		Str("filterColumn", filter.Column).
		Int("matches", len(matched)).
		Int64("durationNS", time.Since(start).Nanoseconds()).
		Msg("materialized filtered page")

	return &Page{
		Rows:       window,
		Columns:    cols,
		PageNum:    pageNum,
		TotalPages: totalPages,
		TotalRows:  int64(len(matched)),
		FullScan:   true,
	}, nil
}

// FilterRows applies the column/value predicate over decoded rows:
// case-insensitive substring containment for string cells, exact string-form
// equality otherwise. Nulls never match. Idempotent by construction.
func FilterRows(rows []Row, filter FilterSpec) []Row {
	matched := make([]Row, 0)
	for _, row := range rows {
		if MatchValue(row[filter.Column], filter.Value) {
			matched = append(matched, row)
		}
	}
	return matched
}

// MatchValue implements the predicate for a single cell.
func MatchValue(cell any, value string) bool {
	if cell == nil {
		return false
	}
	if s, isStr := cell.(string); isStr {
		return strings.Contains(strings.ToLower(s), strings.ToLower(value))
	}
	return fmt.Sprint(cell) == value
}
