package parquet_decoder

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/parquetview/engine"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
	"golang.org/x/sync/errgroup"
)

// readRange decodes rows [start, start+count) of the selected columns and
// zips the column values into rows. Columns decode in parallel, each over
// its own reader, so no reader state is shared between goroutines.
func (f *File) readRange(ctx context.Context, start, count int64, columns []string) ([]engine.Row, error) {
	cols := columns
	if cols == nil {
		cols = f.meta.ColumnNames()
	}
	if count <= 0 || len(cols) == 0 {
		return []engine.Row{}, nil
	}

	results := make([][]any, len(cols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(int(f.np))
	for i, col := range cols {
		i, col := i, col
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			values, err := f.readColumn(col, start, count)
			if err != nil {
				return fmt.Errorf("error reading column %s: %w", col, err)
			}
			results[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]engine.Row, count)
	for r := int64(0); r < count; r++ {
		row := make(engine.Row, len(cols))
		for i, col := range cols {
			if r < int64(len(results[i])) {
				row[col] = results[i][r]
			} else {
				row[col] = nil
			}
		}
		rows[r] = row
	}
	return rows, nil
}

// readColumn skips to start and reads count values of one column. Null cells
// come back as nil values.
func (f *File) readColumn(col string, start, count int64) ([]any, error) {
	pf, err := buffer.NewBufferFile(f.data)
	if err != nil {
		return nil, fmt.Errorf("error in NewBufferFile: %w", err)
	}
	pr, err := reader.NewParquetColumnReader(pf, 1)
	if err != nil {
		return nil, fmt.Errorf("error in NewParquetColumnReader: %w", err)
	}
	defer func() {
		pr.ReadStop()
		pf.Close()
	}()

	path := columnPath(pr.SchemaHandler.GetRootExName(), col)
	if start > 0 {
		if err := pr.SkipRowsByPath(path, start); err != nil {
			return nil, fmt.Errorf("error in SkipRowsByPath: %w", err)
		}
	}
	values, _, _, err := pr.ReadColumnByPath(path, count)
	if err != nil {
		return nil, fmt.Errorf("error in ReadColumnByPath: %w", err)
	}
	return values, nil
}
