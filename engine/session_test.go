package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDecoder serves rows from memory and records which row groups it was
// asked to decode.
type fakeDecoder struct {
	meta   FileMetadata
	groups [][]Row

	mu            sync.Mutex
	groupsDecoded []int
	readAllCalls  int

	failGroup int
}

func newFakeDecoder(groupSizes []int64, columns []Column) *fakeDecoder {
	dec := &fakeDecoder{failGroup: -1}
	var total int64
	byteSizes := make([]int64, len(groupSizes))
	for gi, n := range groupSizes {
		group := make([]Row, 0, n)
		for i := int64(0); i < n; i++ {
			row := Row{}
			for _, col := range columns {
				row[col.Name] = cellFor(col, total+i)
			}
			group = append(group, row)
		}
		dec.groups = append(dec.groups, group)
		byteSizes[gi] = n * 100
		total += n
	}
	dec.meta = FileMetadata{
		TotalRows:         total,
		RowGroupCount:     len(groupSizes),
		RowGroupRowCounts: groupSizes,
		RowGroupByteSizes: byteSizes,
		Columns:           columns,
		SerializedSize:    1024,
		FormatVersion:     "1.0",
		CreatedBy:         "fake",
	}
	return dec
}

func cellFor(col Column, rowNum int64) any {
	if col.Type == "UTF8" {
		return fmt.Sprintf("row-%04d", rowNum)
	}
	return float64(rowNum)
}

func (d *fakeDecoder) Metadata() FileMetadata { return d.meta }
func (d *fakeDecoder) ID() string             { return "file_fake" }
func (d *fakeDecoder) Close() error           { return nil }

func (d *fakeDecoder) ReadRowGroup(ctx context.Context, id int, columns []string) ([]Row, error) {
	d.mu.Lock()
	d.groupsDecoded = append(d.groupsDecoded, id)
	d.mu.Unlock()
	if id == d.failGroup {
		return nil, errors.New("simulated page corruption")
	}
	return projectRows(d.groups[id], columns), nil
}

func (d *fakeDecoder) ReadAll(ctx context.Context, columns []string) ([]Row, error) {
	d.mu.Lock()
	d.readAllCalls++
	d.mu.Unlock()
	var all []Row
	for _, group := range d.groups {
		all = append(all, group...)
	}
	return projectRows(all, columns), nil
}

func (d *fakeDecoder) decoded() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int{}, d.groupsDecoded...)
}

func projectRows(rows []Row, columns []string) []Row {
	if columns == nil {
		return rows
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		pr := make(Row, len(columns))
		for _, col := range columns {
			pr[col] = row[col]
		}
		out[i] = pr
	}
	return out
}

var testColumns = []Column{
	{Name: "id", Type: "DOUBLE", Nullable: true},
	{Name: "name", Type: "UTF8", Nullable: true},
}

func newTestSession(t *testing.T, dec *fakeDecoder, threshold int64, cacheEntries int) *Session {
	t.Helper()
	sess, err := NewSession(dec, threshold, cacheEntries)
	require.NoError(t, err)
	return sess
}

func TestCrossStrategyEquivalence(t *testing.T) {
	groupSizes := []int64{40, 35, 25}

	for _, pageSize := range []int64{1, 7, 25, 30, 100, 1000} {
		full := newTestSession(t, newFakeDecoder(groupSizes, testColumns), 1_000_000, 0)
		partial := newTestSession(t, newFakeDecoder(groupSizes, testColumns), 10, 0)
		require.Equal(t, FullLoad, SelectStrategy(full.Metadata().TotalRows, full.Threshold()))
		require.Equal(t, PartialLoad, SelectStrategy(partial.Metadata().TotalRows, partial.Threshold()))

		totalPages := full.Metadata().TotalPages(pageSize)
		for page := int64(1); page <= totalPages; page++ {
			req := PageRequest{Page: page, PageSize: pageSize}
			fullPage, err := full.ReadPage(context.Background(), req)
			require.NoError(t, err)
			partialPage, err := partial.ReadPage(context.Background(), req)
			require.NoError(t, err)

			require.Equalf(t, fullPage.Rows, partialPage.Rows, "page %d size %d", page, pageSize)
			require.Equal(t, fullPage.TotalPages, partialPage.TotalPages)
		}
	}
}

// concatenating every page in order must reproduce the full row sequence
// exactly once, no gaps, no duplicates
func TestPageConcatenationCoverage(t *testing.T) {
	for _, threshold := range []int64{10, 1_000_000} {
		for _, pageSize := range []int64{1, 7, 30, 99, 100, 250} {
			sess := newTestSession(t, newFakeDecoder([]int64{40, 35, 25}, testColumns), threshold, 0)

			var all []Row
			totalPages := sess.Metadata().TotalPages(pageSize)
			for page := int64(1); page <= totalPages; page++ {
				p, err := sess.ReadPage(context.Background(), PageRequest{Page: page, PageSize: pageSize})
				require.NoError(t, err)
				all = append(all, p.Rows...)
			}

			require.Len(t, all, 100)
			for i, row := range all {
				require.Equal(t, float64(i), row["id"])
				require.Equal(t, fmt.Sprintf("row-%04d", i), row["name"])
			}
		}
	}
}

// page 2 at size 30 needs rows [30, 60): only groups 0 and 1 may be decoded
func TestPartialLoadDecodesOnlyOverlappingGroups(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	sess := newTestSession(t, dec, 10, 0)
	require.Equal(t, PartialLoad, SelectStrategy(sess.Metadata().TotalRows, sess.Threshold()))

	page, err := sess.ReadPage(context.Background(), PageRequest{Page: 2, PageSize: 30})
	require.NoError(t, err)
	require.Len(t, page.Rows, 30)
	require.Equal(t, float64(30), page.Rows[0]["id"])
	require.Equal(t, float64(59), page.Rows[29]["id"])

	require.Equal(t, []int{0, 1}, dec.decoded())
	require.Equal(t, 0, dec.readAllCalls)
}

func TestPageClampBeyondLastPage(t *testing.T) {
	sess := newTestSession(t, newFakeDecoder([]int64{40, 35, 25}, testColumns), 10, 0)

	last, err := sess.ReadPage(context.Background(), PageRequest{Page: 4, PageSize: 30})
	require.NoError(t, err)
	clamped, err := sess.ReadPage(context.Background(), PageRequest{Page: 999, PageSize: 30})
	require.NoError(t, err)

	require.Equal(t, int64(4), clamped.PageNum)
	require.Equal(t, last.Rows, clamped.Rows)

	// below range clamps up to 1
	first, err := sess.ReadPage(context.Background(), PageRequest{Page: -3, PageSize: 30})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.PageNum)
	require.Equal(t, float64(0), first.Rows[0]["id"])
}

func TestEmptyFile(t *testing.T) {
	sess := newTestSession(t, newFakeDecoder(nil, testColumns), 1_000, 0)

	page, err := sess.ReadPage(context.Background(), PageRequest{Page: 1, PageSize: 25})
	require.NoError(t, err)
	require.Empty(t, page.Rows)
	require.Equal(t, int64(1), page.TotalPages)
	require.Equal(t, int64(1), page.PageNum)
}

func TestColumnPruning(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	sess := newTestSession(t, dec, 1_000, 0)

	page, err := sess.ReadPage(context.Background(), PageRequest{Page: 1, PageSize: 5, Columns: []string{"name"}})
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, page.Columns)
	for _, row := range page.Rows {
		require.Len(t, row, 1)
		require.Contains(t, row, "name")
	}
}

func TestInvalidColumnBeforeDecode(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	sess := newTestSession(t, dec, 1_000, 0)

	_, err := sess.ReadPage(context.Background(), PageRequest{Page: 1, PageSize: 5, Columns: []string{"z"}})
	var invalidCol *ErrInvalidColumn
	require.ErrorAs(t, err, &invalidCol)
	require.Equal(t, "z", invalidCol.Column)

	// no decode work may have happened
	require.Empty(t, dec.decoded())
	require.Equal(t, 0, dec.readAllCalls)
}

func TestInvalidPageSize(t *testing.T) {
	sess := newTestSession(t, newFakeDecoder([]int64{10}, testColumns), 1_000, 0)
	_, err := sess.ReadPage(context.Background(), PageRequest{Page: 1, PageSize: 0})
	require.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestDecodeErrorScopedToPage(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	dec.failGroup = 1
	sess := newTestSession(t, dec, 10, 0)

	_, err := sess.ReadPage(context.Background(), PageRequest{Page: 2, PageSize: 30})
	var decodeErr *ErrDecode
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, 1, decodeErr.RowGroup)

	// other row groups stay viewable, the index was not corrupted
	page, err := sess.ReadPage(context.Background(), PageRequest{Page: 1, PageSize: 30})
	require.NoError(t, err)
	require.Len(t, page.Rows, 30)
}

func TestRowGroupCacheAvoidsRedecode(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	sess := newTestSession(t, dec, 10, 8)

	for i := 0; i < 3; i++ {
		_, err := sess.ReadPage(context.Background(), PageRequest{Page: 1, PageSize: 10})
		require.NoError(t, err)
	}
	require.Equal(t, []int{0}, dec.decoded())
	require.Equal(t, 1, sess.cache.len())

	// different column set is a different cache entry
	_, err := sess.ReadPage(context.Background(), PageRequest{Page: 1, PageSize: 10, Columns: []string{"id"}})
	require.NoError(t, err)
	require.Equal(t, []int{0, 0}, dec.decoded())
}

func TestConcurrentReads(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	sess := newTestSession(t, dec, 10, 8)

	errs := make(chan error, 16)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		page := int64(i%4 + 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := sess.ReadPage(context.Background(), PageRequest{Page: page, PageSize: 30})
			if err != nil {
				errs <- err
				return
			}
			if got := p.Rows[0]["id"]; got != float64((page-1)*30) {
				errs <- fmt.Errorf("page %d started at id %v", page, got)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

// cancellation must surface under both strategies, regardless of whether the
// decoder itself checks the context
func TestCancelledContext(t *testing.T) {
	for _, threshold := range []int64{10, 1_000_000} {
		dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
		sess := newTestSession(t, dec, threshold, 0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sess.ReadPage(ctx, PageRequest{Page: 2, PageSize: 30})
		require.ErrorIs(t, err, context.Canceled)

		// shared structures survive the cancellation
		page, err := sess.ReadPage(context.Background(), PageRequest{Page: 2, PageSize: 30})
		require.NoError(t, err)
		require.Len(t, page.Rows, 30)
	}
}

func TestMetadataValidation(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	dec.meta.TotalRows = 99 // breaks sum invariant
	_, err := NewSession(dec, 1_000, 0)
	require.ErrorIs(t, err, ErrCorruptFile)
}
