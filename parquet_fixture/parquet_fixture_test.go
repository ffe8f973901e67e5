package parquet_fixture

import (
	"testing"
)

func TestGetSchemaString(t *testing.T) {
	sa := NewSchemaAccumulator()
	sa.WriteRow(map[string]any{
		"colA": "hey",
	})
	sa.WriteRow(map[string]any{
		"colB": 1.2,
	})
	// repeated columns must not duplicate fields
	sa.WriteRow(map[string]any{
		"colA": "again",
		"colB": 3.4,
	})

	schemaString, err := sa.GetSchemaString()
	if err != nil {
		t.Fatal(err)
	}
	if schemaString != `{"Tag":"name=parquet_go_root, repetitiontype=REQUIRED","Fields":[{"Tag":"type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN, name=colA, repetitiontype=OPTIONAL"},{"Tag":"type=DOUBLE, name=colB, repetitiontype=OPTIONAL"}]}` {
		t.Log(schemaString)
		t.Fatal("got incorrect schema string")
	}
}

func TestBuildFileRowGroups(t *testing.T) {
	groups := [][]map[string]any{
		SequentialRows(0, 4),
		SequentialRows(4, 2),
	}
	b, err := BuildFile(groups)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) < 12 {
		t.Fatal("suspiciously small parquet file")
	}
	if string(b[:4]) != "PAR1" || string(b[len(b)-4:]) != "PAR1" {
		t.Fatal("missing parquet magic bytes")
	}
}

func TestSequentialRows(t *testing.T) {
	rows := SequentialRows(40, 3)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0]["id"] != float64(40) || rows[2]["name"] != "row-0042" {
		t.Fatalf("bad rows: %+v", rows)
	}
}
