package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchValue(t *testing.T) {
	// string cells: case-insensitive substring containment
	require.True(t, MatchValue("Hello World", "world"))
	require.True(t, MatchValue("Hello World", "LO WO"))
	require.False(t, MatchValue("Hello World", "mars"))
	require.True(t, MatchValue("anything", ""))

	// non-string cells: exact string-form equality
	require.True(t, MatchValue(float64(42), "42"))
	require.False(t, MatchValue(float64(42), "4"))
	require.True(t, MatchValue(int64(-7), "-7"))
	require.True(t, MatchValue(true, "true"))

	// nulls never match
	require.False(t, MatchValue(nil, ""))
	require.False(t, MatchValue(nil, "null"))
}

func TestFilterRowsIdempotent(t *testing.T) {
	rows := []Row{
		{"name": "alpha", "id": float64(1)},
		{"name": "ALPHABET", "id": float64(2)},
		{"name": "beta", "id": float64(3)},
		{"name": nil, "id": float64(4)},
	}
	filter := FilterSpec{Column: "name", Value: "alpha"}

	once := FilterRows(rows, filter)
	require.Len(t, once, 2)

	twice := FilterRows(once, filter)
	require.Equal(t, once, twice)
}

func TestReadFilteredPage(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	sess := newTestSession(t, dec, 1_000, 0)

	// "row-001" matches row-0010 through row-0019
	page, err := sess.ReadFilteredPage(context.Background(), PageRequest{Page: 1, PageSize: 25}, FilterSpec{Column: "name", Value: "ROW-001"})
	require.NoError(t, err)
	require.True(t, page.FullScan, "the filter path must warn it scanned everything")
	require.Equal(t, int64(10), page.TotalRows)
	require.Equal(t, int64(1), page.TotalPages)
	require.Len(t, page.Rows, 10)
	require.Equal(t, "row-0010", page.Rows[0]["name"])

	// the slow path always decodes everything, even over the partial
	// threshold
	require.Equal(t, 1, dec.readAllCalls)
	require.Empty(t, dec.decoded())
}

func TestReadFilteredPageRepaginates(t *testing.T) {
	sess := newTestSession(t, newFakeDecoder([]int64{40, 35, 25}, testColumns), 1_000, 0)

	// numeric exact match: only one row matches
	page, err := sess.ReadFilteredPage(context.Background(), PageRequest{Page: 3, PageSize: 25}, FilterSpec{Column: "id", Value: "42"})
	require.NoError(t, err)
	// page number is clamped against the FILTERED page count
	require.Equal(t, int64(1), page.PageNum)
	require.Equal(t, int64(1), page.TotalPages)
	require.Len(t, page.Rows, 1)
	require.Equal(t, float64(42), page.Rows[0]["id"])
}

func TestReadFilteredPageNoMatches(t *testing.T) {
	sess := newTestSession(t, newFakeDecoder([]int64{40, 35, 25}, testColumns), 1_000, 0)

	page, err := sess.ReadFilteredPage(context.Background(), PageRequest{Page: 1, PageSize: 25}, FilterSpec{Column: "name", Value: "nothing-matches-this"})
	require.NoError(t, err)
	require.Empty(t, page.Rows)
	require.Equal(t, int64(0), page.TotalRows)
	require.Equal(t, int64(1), page.TotalPages)
}

func TestReadFilteredPageStripsFilterColumn(t *testing.T) {
	sess := newTestSession(t, newFakeDecoder([]int64{40, 35, 25}, testColumns), 1_000, 0)

	// filter on "name" but only select "id": the filter column is decoded
	// for matching but must not leak into the result rows
	page, err := sess.ReadFilteredPage(context.Background(), PageRequest{Page: 1, PageSize: 5, Columns: []string{"id"}}, FilterSpec{Column: "name", Value: "row-00"})
	require.NoError(t, err)
	require.Equal(t, []string{"id"}, page.Columns)
	require.NotEmpty(t, page.Rows)
	for _, row := range page.Rows {
		require.Contains(t, row, "id")
		require.NotContains(t, row, "name")
	}
}

func TestReadFilteredPageInvalidColumn(t *testing.T) {
	dec := newFakeDecoder([]int64{40, 35, 25}, testColumns)
	sess := newTestSession(t, dec, 1_000, 0)

	_, err := sess.ReadFilteredPage(context.Background(), PageRequest{Page: 1, PageSize: 25}, FilterSpec{Column: "z", Value: "x"})
	var invalidCol *ErrInvalidColumn
	require.ErrorAs(t, err, &invalidCol)
	require.Equal(t, "z", invalidCol.Column)
	require.Equal(t, 0, dec.readAllCalls)
}
