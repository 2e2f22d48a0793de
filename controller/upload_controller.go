package controller

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"camgrocer/usecase"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadController stores product and store images on local disk. They
// are served back under /uploads/.
type UploadController struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

func NewUploadController(dir string, maxBytes int64, logger *zap.Logger) *UploadController {
	return &UploadController{dir: dir, maxBytes: maxBytes, logger: logger}
}

func (c *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxBytes+1<<10)
	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image larger than %d bytes", c.maxBytes))
			return
		}
		writeError(w, r, c.logger, fmt.Errorf("%w: multipart field \"image\" is required", usecase.ErrInvalidInput))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, c.maxBytes+1))
	if err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	if int64(len(data)) > c.maxBytes {
		writeMessage(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image larger than %d bytes", c.maxBytes))
		return
	}

	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		writeError(w, r, c.logger, fmt.Errorf("%w: only jpeg, png, gif and webp images are accepted", usecase.ErrInvalidInput))
		return
	}

	name := ulid.Make().String() + ext
	if err := c.save(name, data); err != nil {
		writeError(w, r, c.logger, err)
		return
	}
	c.logger.Info("image uploaded", zap.String("file", name), zap.Int("bytes", len(data)))
	writeJSON(w, http.StatusCreated, map[string]string{"url": "/uploads/" + name})
}

func (c *UploadController) save(name string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(filepath.Join(c.dir, name))
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	return f.Close()
}
