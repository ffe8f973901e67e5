// Package parquet_fixture builds small in-memory parquet files with exact
// row group boundaries, for exercising the paging engine in tests.
package parquet_fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go/writer"
)

type (
	// SchemaAccumulator derives a parquet-go JSON schema from example rows.
	// Fixture rows are flat maps of strings and numbers.
	SchemaAccumulator struct {
		fields []schemaField
	}

	schemaField struct {
		Tag string `json:",omitempty"`
	}

	jsonSchema struct {
		Tag    string        `json:",omitempty"`
		Fields []schemaField `json:",omitempty"`
	}
)

func NewSchemaAccumulator() *SchemaAccumulator {
	return &SchemaAccumulator{}
}

// WriteRow records any columns this row introduces. Strings become
// BYTE_ARRAY/UTF8, everything else DOUBLE (the JSON number type).
func (sa *SchemaAccumulator) WriteRow(row map[string]any) {
	for key, val := range row {
		if sa.fieldExists(key) {
			continue
		}
		var tagArr []string
		if _, isStr := val.(string); isStr {
			tagArr = append(tagArr, "type=BYTE_ARRAY", "convertedtype=UTF8", "encoding=PLAIN")
		} else {
			tagArr = append(tagArr, "type=DOUBLE")
		}
		tagArr = append(tagArr, "name="+key, "repetitiontype=OPTIONAL")
		sa.fields = append(sa.fields, schemaField{Tag: strings.Join(tagArr, ", ")})
	}
}

func (sa *SchemaAccumulator) fieldExists(fieldName string) bool {
	marker := "name=" + fieldName + ","
	for _, field := range sa.fields {
		if strings.Contains(field.Tag, marker) {
			return true
		}
	}
	return false
}

// GetSchemaString returns the JSON formatted schema string.
func (sa *SchemaAccumulator) GetSchemaString() (string, error) {
	js := jsonSchema{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: sa.fields,
	}
	b, err := json.Marshal(js)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}

// BuildFile writes one parquet file where each element of groups becomes its
// own row group, in order. The schema is accumulated over all rows first so
// every group carries every column.
func BuildFile(groups [][]map[string]any) ([]byte, error) {
	sa := NewSchemaAccumulator()
	for _, group := range groups {
		for _, row := range group {
			sa.WriteRow(row)
		}
	}
	schemaString, err := sa.GetSchemaString()
	if err != nil {
		return nil, fmt.Errorf("error in GetSchemaString: %w", err)
	}

	var b bytes.Buffer
	pw, err := writer.NewJSONWriterFromWriter(schemaString, &b, 1)
	if err != nil {
		return nil, fmt.Errorf("error in NewJSONWriterFromWriter: %w", err)
	}

	for _, group := range groups {
		for _, row := range group {
			rowBytes, err := json.Marshal(row)
			if err != nil {
				return nil, fmt.Errorf("error in json.Marshal of row: %w", err)
			}
			if err := pw.Write(rowBytes); err != nil {
				return nil, fmt.Errorf("error in pw.Write: %w", err)
			}
		}
		// force the row group boundary here
		if err := pw.Flush(true); err != nil {
			return nil, fmt.Errorf("error in pw.Flush: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("error in pw.WriteStop: %w", err)
	}

	return b.Bytes(), nil
}

// SequentialRows generates n rows starting at global row offset start, with
// a numeric "id" column and a string "name" column whose values encode the
// global row position. Handy for asserting exact row order.
func SequentialRows(start, n int) []map[string]any {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]any{
			"id":   float64(start + i),
			"name": fmt.Sprintf("row-%04d", start+i),
		})
	}
	return rows
}
