package parquet_decoder

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/danthegoodman1/parquetview/engine"
	"github.com/danthegoodman1/parquetview/gologger"
	"github.com/danthegoodman1/parquetview/utils"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
)

var logger = gologger.NewLogger()

const magic = "PAR1"

// File is an open, format-decodable parquet byte stream. It implements
// engine.Decoder. The bytes are immutable for the life of the File, every
// read builds its own reader over them so concurrent reads are safe.
type File struct {
	id   string
	data []byte
	meta engine.FileMetadata
	// startRows[i] is the global row offset of row group i
	startRows []int64
	np        int64
}

// Open parses the footer only, never column data. Re-invoking on the same
// bytes yields identical metadata.
func Open(b []byte) (*File, error) {
	if len(b) < 12 || string(b[:4]) != magic || string(b[len(b)-4:]) != magic {
		return nil, fmt.Errorf("%w: missing magic bytes", engine.ErrCorruptFile)
	}

	pf, err := buffer.NewBufferFile(b)
	if err != nil {
		return nil, fmt.Errorf("error in NewBufferFile: %w", err)
	}
	pr, err := reader.NewParquetColumnReader(pf, utils.DECODE_PARALLELISM)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", engine.ErrCorruptFile, err.Error())
	}
	defer func() {
		pr.ReadStop()
		pf.Close()
	}()

	footer := pr.Footer
	if footer.Version < 1 || footer.Version > 2 {
		return nil, fmt.Errorf("%w: version %d", engine.ErrUnsupportedVersion, footer.Version)
	}

	f := &File{
		id:   utils.GenKSortedID("file_"),
		data: b,
		np:   utils.DECODE_PARALLELISM,
	}

	rowCounts := make([]int64, 0, len(footer.RowGroups))
	byteSizes := make([]int64, 0, len(footer.RowGroups))
	f.startRows = make([]int64, 0, len(footer.RowGroups))
	var offset int64
	for _, rg := range footer.RowGroups {
		rowCounts = append(rowCounts, rg.NumRows)
		byteSizes = append(byteSizes, rg.TotalByteSize)
		f.startRows = append(f.startRows, offset)
		offset += rg.NumRows
	}

	f.meta = engine.FileMetadata{
		TotalRows:         footer.NumRows,
		RowGroupCount:     len(footer.RowGroups),
		RowGroupRowCounts: rowCounts,
		RowGroupByteSizes: byteSizes,
		Columns:           schemaColumns(footer.Schema, pr.SchemaHandler.Infos),
		// footer length lives in the 4 bytes before the trailing magic
		SerializedSize: int64(binary.LittleEndian.Uint32(b[len(b)-8 : len(b)-4])),
		FormatVersion:  fmt.Sprintf("%d.0", footer.Version),
		CreatedBy:      utils.Deref(footer.CreatedBy, ""),
	}

	logger.Debug().
		Str("fileID", f.id).
		Int64("rows", f.meta.TotalRows).
		Int("rowGroups", f.meta.RowGroupCount).
		Int("columns", len(f.meta.Columns)).
		Msg("loaded parquet metadata")

	return f, nil
}

func (f *File) ID() string                    { return f.id }
func (f *File) Metadata() engine.FileMetadata { return f.meta }
func (f *File) Close() error                  { return nil }

// ReadRowGroup decodes exactly one row group, selected columns only.
func (f *File) ReadRowGroup(ctx context.Context, id int, columns []string) ([]engine.Row, error) {
	if id < 0 || id >= f.meta.RowGroupCount {
		return nil, fmt.Errorf("row group %d out of range [0, %d)", id, f.meta.RowGroupCount)
	}
	return f.readRange(ctx, f.startRows[id], f.meta.RowGroupRowCounts[id], columns)
}

// ReadAll decodes the entire file's selected columns.
func (f *File) ReadAll(ctx context.Context, columns []string) ([]engine.Row, error) {
	return f.readRange(ctx, 0, f.meta.TotalRows, columns)
}

// schemaColumns extracts the leaf columns that are direct children of the
// schema root, in schema order. Names come from the schema handler's ExNames:
// the column reader rewrites footer element names to Go-cased in-names, the
// ExName keeps the name the file actually carries.
func schemaColumns(schema []*parquet.SchemaElement, infos []*common.Tag) []engine.Column {
	if len(schema) == 0 {
		return nil
	}
	var cols []engine.Column
	idx := 1
	for i := 0; i < numChildren(schema[0]) && idx < len(schema); i++ {
		elem := schema[idx]
		if numChildren(elem) == 0 {
			cols = append(cols, engine.Column{
				Name:     infos[idx].ExName,
				Type:     columnType(elem),
				Nullable: elem.RepetitionType != nil && *elem.RepetitionType == parquet.FieldRepetitionType_OPTIONAL,
			})
		}
		idx += subtreeSize(schema, idx)
	}
	return cols
}

func columnType(elem *parquet.SchemaElement) string {
	if elem.ConvertedType != nil {
		return elem.ConvertedType.String()
	}
	if elem.Type != nil {
		return elem.Type.String()
	}
	return "GROUP"
}

func numChildren(elem *parquet.SchemaElement) int {
	if elem.NumChildren == nil {
		return 0
	}
	return int(*elem.NumChildren)
}

func subtreeSize(schema []*parquet.SchemaElement, idx int) int {
	size := 1
	for i := 0; i < numChildren(schema[idx]); i++ {
		size += subtreeSize(schema, idx+size)
	}
	return size
}

// columnPath builds the external dotted path the column reader resolves
// through its ex-to-in path map. root and col must both be ExNames.
func columnPath(root, col string) string {
	return common.ReformPathStr(root + "." + col)
}
