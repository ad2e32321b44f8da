// Package imaging turns uploaded image payloads into stored bytes plus a
// content type.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes bounds the size of a single contact photo.
const MaxImageBytes = 5 << 20

// ErrCodec is returned when an upload cannot be read or is not an image.
var ErrCodec = errors.New("image codec failure")

// Codec converts uploads to bytes. The zero value is ready to use.
type Codec struct {
	// MaxBytes overrides MaxImageBytes when positive.
	MaxBytes int64
}

// ToBytes reads r fully and returns its bytes and content type.
// declaredType is what the client claimed; the sniffed type wins when the
// declaration is empty or generic. Non-image content is rejected.
func (c Codec) ToBytes(r io.Reader, declaredType string) ([]byte, string, error) {
	limit := c.MaxBytes
	if limit <= 0 {
		limit = MaxImageBytes
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read: %v", ErrCodec, err)
	}
	if n == 0 {
		return nil, "", fmt.Errorf("%w: empty upload", ErrCodec)
	}
	if n > limit {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", ErrCodec, limit)
	}

	data := buf.Bytes()
	sniffed := mimetype.Detect(data)
	if !strings.HasPrefix(sniffed.String(), "image/") {
		return nil, "", fmt.Errorf("%w: unsupported content type %s", ErrCodec, sniffed.String())
	}

	contentType := strings.TrimSpace(declaredType)
	if contentType == "" || contentType == "application/octet-stream" || !sniffed.Is(contentType) {
		contentType = sniffed.String()
	}
	return data, contentType, nil
}
