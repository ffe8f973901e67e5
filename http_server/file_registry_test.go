package http_server

import (
	"testing"
	"time"

	"github.com/danthegoodman1/parquetview/engine"
	"github.com/danthegoodman1/parquetview/parquet_decoder"
	"github.com/danthegoodman1/parquetview/parquet_fixture"
)

func loadedTestFile(t *testing.T, threshold int64) *LoadedFile {
	t.Helper()
	b, err := parquet_fixture.BuildFile([][]map[string]any{parquet_fixture.SequentialRows(0, 5)})
	if err != nil {
		t.Fatal(err)
	}
	f, err := parquet_decoder.Open(b)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := engine.NewSession(f, threshold, 0)
	if err != nil {
		t.Fatal(err)
	}
	return &LoadedFile{Session: sess, Name: "test.parquet", LoadedAt: time.Now()}
}

func TestFileRegistry(t *testing.T) {
	r := NewFileRegistry(100_000)

	lf := loadedTestFile(t, r.Threshold())
	r.Put(lf)

	got, ok := r.Get(lf.Session.FileID())
	if !ok || got.Name != "test.parquet" {
		t.Fatalf("expected to get back the loaded file, got %+v", got)
	}

	if !r.Delete(lf.Session.FileID()) {
		t.Fatal("expected delete to find the file")
	}
	if _, ok := r.Get(lf.Session.FileID()); ok {
		t.Fatal("file should be gone after delete")
	}
	if r.Delete("nope") {
		t.Fatal("deleting a missing file should report false")
	}
}

// threshold changes apply to the next load, not retroactively
func TestThresholdFrozenPerSession(t *testing.T) {
	r := NewFileRegistry(100_000)

	before := loadedTestFile(t, r.Threshold())
	r.Put(before)

	r.SetThreshold(5_000)

	after := loadedTestFile(t, r.Threshold())
	r.Put(after)

	if before.Session.Threshold() != 100_000 {
		t.Fatalf("already open session changed threshold: %d", before.Session.Threshold())
	}
	if after.Session.Threshold() != 5_000 {
		t.Fatalf("new session did not pick up threshold: %d", after.Session.Threshold())
	}
}
