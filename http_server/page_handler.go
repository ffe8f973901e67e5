package http_server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danthegoodman1/parquetview/engine"
)

const DefaultPageSize = 25

// GetPageHandler serves one page of rows. Query params:
// page (default 1, clamped), page_size (default 25), columns (comma
// separated, empty = all), filter_column + filter_value (optional, triggers
// the full scan path).
func (s *HTTPServer) GetPageHandler(c *CustomContext) error {
	lf, ok := s.Files.Get(c.Param("id"))
	if !ok {
		return c.String(http.StatusNotFound, "file not found")
	}

	req := engine.PageRequest{
		Page:     1,
		PageSize: DefaultPageSize,
	}
	if p := c.QueryParam("page"); p != "" {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return c.String(http.StatusBadRequest, "page must be an integer")
		}
		req.Page = v
	}
	if p := c.QueryParam("page_size"); p != "" {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v <= 0 {
			return c.String(http.StatusBadRequest, "page_size must be a positive integer")
		}
		req.PageSize = v
	}
	if p := c.QueryParam("columns"); p != "" {
		for _, col := range strings.Split(p, ",") {
			col = strings.TrimSpace(col)
			if col != "" {
				req.Columns = append(req.Columns, col)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	var page *engine.Page
	var err error
	if filterCol := c.QueryParam("filter_column"); filterCol != "" {
		page, err = lf.Session.ReadFilteredPage(ctx, req, engine.FilterSpec{
			Column: filterCol,
			Value:  c.QueryParam("filter_value"),
		})
	} else {
		page, err = lf.Session.ReadPage(ctx, req)
	}
	if err != nil {
		var invalidCol *engine.ErrInvalidColumn
		if errors.As(err, &invalidCol) {
			return c.String(http.StatusBadRequest, invalidCol.Error())
		}
		if errors.Is(err, engine.ErrInvalidPageSize) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		var decodeErr *engine.ErrDecode
		if errors.As(err, &decodeErr) {
			return c.InternalError(err, fmt.Sprintf("error decoding row group %d", decodeErr.RowGroup))
		}
		return c.InternalError(err, "error materializing page")
	}

	return c.JSON(http.StatusOK, page)
}
