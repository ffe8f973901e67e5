package http_server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danthegoodman1/parquetview/engine"
	"github.com/danthegoodman1/parquetview/parquet_decoder"
	"github.com/danthegoodman1/parquetview/s3_helper"
	"github.com/danthegoodman1/parquetview/utils"
	"github.com/rs/zerolog"
)

type (
	SchemaColumn struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Nullable bool   `json:"nullable"`
	}

	MetadataResponse struct {
		FormatVersion       string  `json:"format_version"`
		CreatedBy           string  `json:"created_by"`
		TotalRows           int64   `json:"total_rows"`
		RowGroupCount       int     `json:"row_group_count"`
		SerializedSizeBytes int64   `json:"serialized_size_bytes"`
		ApproximateSizeMB   float64 `json:"approximate_size_mb"`
	}

	FileLoadedResponse struct {
		ID       string           `json:"id"`
		Name     string           `json:"name"`
		Metadata MetadataResponse `json:"metadata"`
		Schema   []SchemaColumn   `json:"schema"`
	}

	LoadS3FileReqBody struct {
		// Bucket defaults to S3_BUCKET_NAME
		Bucket string
		Key    string `validate:"required"`
		Name   string
	}
)

func metadataResponse(meta engine.FileMetadata) MetadataResponse {
	createdBy := meta.CreatedBy
	if createdBy == "" {
		createdBy = "Unknown"
	}
	return MetadataResponse{
		FormatVersion:       meta.FormatVersion,
		CreatedBy:           createdBy,
		TotalRows:           meta.TotalRows,
		RowGroupCount:       meta.RowGroupCount,
		SerializedSizeBytes: meta.SerializedSize,
		ApproximateSizeMB:   meta.ApproxSizeMB(),
	}
}

func schemaResponse(meta engine.FileMetadata) []SchemaColumn {
	cols := make([]SchemaColumn, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		cols = append(cols, SchemaColumn{
			Name:     col.Name,
			Type:     col.Type,
			Nullable: col.Nullable,
		})
	}
	return cols
}

// loadFile runs the shared load path: parse footer, build the session with
// the threshold frozen as of now, register it.
func (s *HTTPServer) loadFile(c *CustomContext, fileBytes []byte, name string) error {
	file, err := parquet_decoder.Open(fileBytes)
	if errors.Is(err, engine.ErrCorruptFile) || errors.Is(err, engine.ErrUnsupportedVersion) {
		return c.String(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return c.InternalError(err, "error opening parquet file")
	}

	sess, err := engine.NewSession(file, s.Files.Threshold(), int(utils.ROW_GROUP_CACHE_ENTRIES))
	if err != nil {
		if errors.Is(err, engine.ErrCorruptFile) {
			return c.String(http.StatusBadRequest, err.Error())
		}
		return c.InternalError(err, "error creating session")
	}

	if name == "" {
		name = utils.GenRandomShortID() + ".parquet"
	}
	s.Files.Put(&LoadedFile{
		Session:  sess,
		Name:     name,
		LoadedAt: time.Now(),
	})

	meta := sess.Metadata()
	zerolog.Ctx(c.Request().Context()).Info().
		Str("fileID", sess.FileID()).
		Str("name", name).
		Int64("rows", meta.TotalRows).
		Int("columns", len(meta.Columns)).
		Msg("loaded file")

	return c.JSON(http.StatusCreated, FileLoadedResponse{
		ID:       sess.FileID(),
		Name:     name,
		Metadata: metadataResponse(meta),
		Schema:   schemaResponse(meta),
	})
}

// UploadFileHandler accepts the parquet bytes either as a multipart `file`
// field or as the raw request body.
func (s *HTTPServer) UploadFileHandler(c *CustomContext) error {
	name := c.QueryParam("name")

	var fileBytes []byte
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > utils.MAX_UPLOAD_BYTES {
			return c.String(http.StatusRequestEntityTooLarge, "file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return c.InternalError(err, "error opening multipart file")
		}
		defer f.Close()
		fileBytes, err = io.ReadAll(f)
		if err != nil {
			return c.InternalError(err, "error reading multipart file")
		}
		if name == "" {
			name = fh.Filename
		}
	} else {
		defer c.Request().Body.Close()
		var readErr error
		fileBytes, readErr = io.ReadAll(io.LimitReader(c.Request().Body, utils.MAX_UPLOAD_BYTES+1))
		if readErr != nil {
			return c.InternalError(readErr, "error reading request body")
		}
		if int64(len(fileBytes)) > utils.MAX_UPLOAD_BYTES {
			return c.String(http.StatusRequestEntityTooLarge, "file too large")
		}
	}

	if len(fileBytes) == 0 {
		return c.String(http.StatusBadRequest, "no file bytes provided")
	}

	return s.loadFile(c, fileBytes, name)
}

// LoadS3FileHandler pulls the bytes from S3 on the caller's behalf, then runs
// the same load path as a direct upload.
func (s *HTTPServer) LoadS3FileHandler(c *CustomContext) error {
	var reqBody LoadS3FileReqBody
	if err := ValidateRequest(c, &reqBody); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	fileBytes, err := s3_helper.ReadBytesFromS3(ctx, reqBody.Bucket, reqBody.Key)
	if err != nil {
		return c.InternalError(err, fmt.Sprintf("error reading %s from s3", reqBody.Key))
	}

	name := reqBody.Name
	if name == "" {
		name = reqBody.Key
	}
	return s.loadFile(c, fileBytes, name)
}

func (s *HTTPServer) GetMetadataHandler(c *CustomContext) error {
	lf, ok := s.Files.Get(c.Param("id"))
	if !ok {
		return c.String(http.StatusNotFound, "file not found")
	}
	return c.JSON(http.StatusOK, metadataResponse(lf.Session.Metadata()))
}

func (s *HTTPServer) GetSchemaHandler(c *CustomContext) error {
	lf, ok := s.Files.Get(c.Param("id"))
	if !ok {
		return c.String(http.StatusNotFound, "file not found")
	}
	return c.JSON(http.StatusOK, schemaResponse(lf.Session.Metadata()))
}

func (s *HTTPServer) DeleteFileHandler(c *CustomContext) error {
	if !s.Files.Delete(c.Param("id")) {
		return c.String(http.StatusNotFound, "file not found")
	}
	return c.NoContent(http.StatusNoContent)
}
