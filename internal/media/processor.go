package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"mime"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

const DefaultMaxDimension = 2048

var (
	ErrEmptyImage    = errors.New("media: empty image data")
	ErrImageTooLarge = errors.New("media: image exceeds the maximum dimension")
)

type Upload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type Result struct {
	Bytes       []byte
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

type Processor interface {
	Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error)
}

// IsImage reports whether contentType is one of the raster formats the
// processor can inspect.
func IsImage(contentType string) bool {
	switch normalizeContentType(contentType, "") {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// ImageProcessor caps image dimensions. Images within the cap pass through
// unchanged; larger ones are scaled with ffmpeg when a binary is configured
// and rejected otherwise.
type ImageProcessor struct {
	maxDimension int
	ffmpeg       *ffmpeg
}

func NewImageProcessor(ffmpegPath string, maxDimension int) *ImageProcessor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	p := &ImageProcessor{maxDimension: maxDimension}
	if path := strings.TrimSpace(ffmpegPath); path != "" {
		p.ffmpeg = newFFmpeg(path)
	}
	return p
}

func (p *ImageProcessor) Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error) {
	if upload.Reader == nil {
		return nil, ErrEmptyImage
	}
	data, err := io.ReadAll(upload.Reader)
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	contentType := normalizeContentType(upload.ContentType, upload.FileName)
	width, height, err := decodeDimensions(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode dimensions: %w", err)
	}

	limit := maxDimension
	if limit <= 0 {
		limit = p.maxDimension
	}
	if width <= limit && height <= limit {
		return &Result{Bytes: data, ContentType: contentType, Width: width, Height: height}, nil
	}
	if p.ffmpeg == nil {
		return nil, fmt.Errorf("%w: %dx%d over %d", ErrImageTooLarge, width, height, limit)
	}

	targetW, targetH := scaleToFit(width, height, limit)
	scaled, err := p.ffmpeg.scale(ctx, data, contentType, targetW, targetH)
	if err != nil {
		return nil, err
	}
	return &Result{Bytes: scaled, ContentType: contentType, Width: targetW, Height: targetH, Resized: true}, nil
}

func decodeDimensions(r io.Reader) (int, int, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

func scaleToFit(width, height, maxDim int) (int, int) {
	if width >= height {
		return atLeastTwo(maxDim), atLeastTwo(int(math.Round(float64(height) * float64(maxDim) / float64(width))))
	}
	return atLeastTwo(int(math.Round(float64(width) * float64(maxDim) / float64(height)))), atLeastTwo(maxDim)
}

func atLeastTwo(v int) int {
	if v < 2 {
		return 2
	}
	return v
}

func normalizeContentType(value, fileName string) string {
	ct := strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return normalizeContentType(mt, "")
		}
	}
	return ct
}
