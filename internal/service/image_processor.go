package service

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/media"
)

// prepareUpload passes images through the processor so oversized pictures are
// scaled down before storage. Other files are returned untouched.
func prepareUpload(ctx context.Context, processor media.Processor, upload media.Upload, maxDimension int) (io.Reader, int64, string, error) {
	if processor == nil || !media.IsImage(upload.ContentType) {
		return upload.Reader, upload.Size, upload.ContentType, nil
	}
	result, err := processor.Process(ctx, upload, maxDimension)
	if err != nil {
		return nil, 0, "", err
	}
	contentType := strings.TrimSpace(result.ContentType)
	if contentType == "" {
		contentType = upload.ContentType
	}
	return bytes.NewReader(result.Bytes), int64(len(result.Bytes)), contentType, nil
}
