package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/danthegoodman1/parquetview/gologger"
	"github.com/danthegoodman1/parquetview/utils"
)

var logger = gologger.NewLogger()

// Session owns one loaded file: its metadata, its row group index, and the
// strategy threshold frozen at load time. Metadata and index are immutable
// after construction, so a Session is safe for concurrent ReadPage calls.
type Session struct {
	dec       Decoder
	meta      FileMetadata
	index     []RowGroupEntry
	threshold int64
	cache     *rowGroupCache
}

// NewSession loads metadata through the decoder, validates it, and builds
// the row group index. A metadata failure aborts the whole session, no
// partial metadata is ever exposed. cacheEntries <= 0 disables the row group
// cache.
func NewSession(dec Decoder, threshold int64, cacheEntries int) (*Session, error) {
	meta := dec.Metadata()
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("error validating file metadata: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultFullLoadThreshold
	}
	return &Session{
		dec:       dec,
		meta:      meta,
		index:     BuildIndex(meta.RowGroupRowCounts),
		threshold: threshold,
		cache:     newRowGroupCache(cacheEntries),
	}, nil
}

func (s *Session) Metadata() FileMetadata { return s.meta }
func (s *Session) Index() []RowGroupEntry { return s.index }
func (s *Session) Threshold() int64       { return s.threshold }
func (s *Session) FileID() string         { return s.dec.ID() }
func (s *Session) Close() error           { return s.dec.Close() }

// ReadPage materializes one page of unfiltered rows. Both strategies produce
// identical row content and order for the same request.
func (s *Session) ReadPage(ctx context.Context, req PageRequest) (*Page, error) {
	if req.PageSize <= 0 {
		return nil, ErrInvalidPageSize
	}
	cols, err := s.resolveColumns(req.Columns)
	if err != nil {
		return nil, err
	}

	totalPages := s.meta.TotalPages(req.PageSize)
	pageNum := clampPage(req.Page, totalPages)

	page := &Page{
		Rows:       make([]Row, 0, req.PageSize),
		Columns:    cols,
		PageNum:    pageNum,
		TotalPages: totalPages,
		TotalRows:  s.meta.TotalRows,
	}
	if s.meta.TotalRows == 0 {
		// a valid zero-page state, not an error
		return page, nil
	}

	plan := PlanPage(s.index, pageNum, req.PageSize, s.meta.TotalRows)
	strategy := SelectStrategy(s.meta.TotalRows, s.threshold)

	start := time.Now()
	var rows []Row
	switch strategy {
	case FullLoad:
		rows, err = s.readFull(ctx, cols, plan.StartRow, plan.EndRow)
	default:
		rows, err = s.readPartial(ctx, cols, plan, req.PageSize)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("fileID", s.dec.ID()).
		Str("strategy", strategy.String()).
		Int64("page", pageNum).
		Int64("pageSize", req.PageSize).
		Ints("rowGroups", plan.RowGroupIDs()).
		Int64("durationNS", time.Since(start).Nanoseconds()).
		Msg("materialized page")

	page.Rows = rows
	return page, nil
}

// readFull decodes the whole file and slices the window out in memory.
// Cancellation is honored here too, not just by the decoder.
func (s *Session) readFull(ctx context.Context, cols []string, startRow, endRow int64) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.dec.ReadAll(ctx, cols)
	if err != nil {
		return nil, fmt.Errorf("error in ReadAll: %w", err)
	}
	return sliceRows(rows, startRow, endRow-startRow), nil
}

// readPartial decodes only the overlapping row groups, concatenates them in
// ascending row group order, and slices the window relative to the first
// overlapping group.
func (s *Session) readPartial(ctx context.Context, cols []string, plan PagePlan, pageSize int64) ([]Row, error) {
	var stitched []Row
	for _, entry := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := s.readGroup(ctx, entry.ID, cols)
		if err != nil {
			return nil, err
		}
		stitched = append(stitched, rows...)
	}
	return sliceRows(stitched, plan.LocalOffset, pageSize), nil
}

func (s *Session) readGroup(ctx context.Context, id int, cols []string) ([]Row, error) {
	key := cacheKey(s.dec.ID(), id, cols)
	rows, err := s.cache.getOrDecode(ctx, key, func(ctx context.Context) ([]Row, error) {
		rows, err := s.dec.ReadRowGroup(ctx, id, cols)
		if err != nil {
			return nil, &ErrDecode{RowGroup: id, cause: err}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// resolveColumns validates a column selection against the schema before any
// decode work happens. nil means all columns, in schema order. An explicit
// selection keeps the caller's order, minus duplicates.
func (s *Session) resolveColumns(selection []string) ([]string, error) {
	if selection == nil {
		return s.meta.ColumnNames(), nil
	}
	var cols []string
	for _, name := range selection {
		if !s.meta.HasColumn(name) {
			return nil, &ErrInvalidColumn{Column: name}
		}
		if !utils.ContainsString(cols, name) {
			cols = append(cols, name)
		}
	}
	if len(cols) == 0 {
		return s.meta.ColumnNames(), nil
	}
	return cols, nil
}

// sliceRows clamps [offset, offset+limit) to the available rows.
func sliceRows(rows []Row, offset, limit int64) []Row {
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(rows)) {
		return []Row{}
	}
	end := offset + limit
	if end > int64(len(rows)) {
		end = int64(len(rows))
	}
	return rows[offset:end]
}
