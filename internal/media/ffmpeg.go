package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type ffmpeg struct {
	path        string
	jpegQuality int
	pngLevel    int
	webpQuality int
}

func newFFmpeg(path string) *ffmpeg {
	return &ffmpeg{path: path, jpegQuality: 3, pngLevel: 4, webpQuality: 85}
}

func (f *ffmpeg) scale(ctx context.Context, data []byte, contentType string, width, height int) ([]byte, error) {
	codec, extra, err := f.codec(contentType)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-vf", fmt.Sprintf("scale=%d:%d:flags=lanczos", width, height),
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", codec,
	}
	args = append(args, extra...)
	args = append(args, "pipe:1")

	cmd := exec.CommandContext(ctx, f.path, args...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffmpeg: %v: %s", err, msg)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg: produced empty output")
	}
	return stdout.Bytes(), nil
}

func (f *ffmpeg) codec(contentType string) (string, []string, error) {
	switch contentType {
	case "image/jpeg":
		return "mjpeg", []string{"-q:v", strconv.Itoa(f.jpegQuality)}, nil
	case "image/png":
		return "png", []string{"-compression_level", strconv.Itoa(f.pngLevel)}, nil
	case "image/webp":
		return "libwebp", []string{"-quality", strconv.Itoa(f.webpQuality)}, nil
	}
	return "", nil, fmt.Errorf("media: cannot resize %s", contentType)
}
