package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"restage-service/internal/domain"
)

var ErrNotDataURI = errors.New("not a data uri")

// IsDataURI reports whether s looks like a base64 data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// ParseDataURI splits a data URI into raw bytes and its MIME type.
func ParseDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if !IsDataURI(s) {
		return nil, "", ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data uri")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data uri payload: %w", err)
	}
	if mime == "" {
		mime = DetectMime(data, "")
	}
	return data, mime, nil
}

// ToDataURI encodes raw bytes as a base64 data URI.
func ToDataURI(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = DetectMime(data, "")
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DetectMime prefers the provided content type and falls back to sniffing.
// Anything that is not an image collapses to image/jpeg.
func DetectMime(data []byte, provided string) string {
	mime := strings.TrimSpace(provided)
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}

// Probe reports dimensions and format without decoding the full pixel data.
// The jpeg/png/gif/webp/bmp/tiff decoders are registered above.
func Probe(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("probe image: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// ReencodeJPEG decodes any supported format and re-encodes it as JPEG at the
// given quality. Quality outside (0,100] falls back to the default.
func ReencodeJPEG(data []byte, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = domain.DefaultJPEGQuality
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
