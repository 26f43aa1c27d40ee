// Package photos stores the job photos attached to requests, keyed by a
// generated file name.
package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bricpa/internal/validate"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("photo not found")
	ErrBadName     = errors.New("invalid photo name")
	ErrUnsupported = errors.New("only jpg and png photos are accepted")
)

// Store is the photo side directory.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, name string) error
}

// Sniff reports the extension and MIME type of an accepted image, judged by
// content rather than the uploaded file name.
func Sniff(data []byte) (ext, mime string, err error) {
	switch ct := http.DetectContentType(data); ct {
	case "image/jpeg":
		return "jpg", ct, nil
	case "image/png":
		return "png", ct, nil
	}
	return "", "", ErrUnsupported
}

// Names returns n photo names for one request posted at now:
// request_<YYYYMMDDhhmmss>_<8 hex>_<i>.<ext>.
func Names(now time.Time, exts []string) []string {
	batch := uuid.NewString()[:8]
	stamp := now.UTC().Format("20060102150405")
	out := make([]string, len(exts))
	for i, ext := range exts {
		out[i] = fmt.Sprintf("request_%s_%s_%d.%s", stamp, batch, i, ext)
	}
	return out
}

// MIMEOf derives the content type from a stored name.
func MIMEOf(name string) string {
	if len(name) > 4 && name[len(name)-4:] == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}

func checkName(name string) error {
	if _, ok := validate.PhotoName(name); !ok {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}
