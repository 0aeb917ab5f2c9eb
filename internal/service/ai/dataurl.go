package ai

import (
	"encoding/base64"
	"fmt"
	"strings"

	"essaycoach/internal/config"
	"essaycoach/internal/domain"
)

// supportedImageTypes are the MIME types vision providers accept
var supportedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Image is a decoded data URL
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseDataURL decodes "data:image/<type>;base64,<payload>". Failures are
// domain.InvalidImageFormatError.
func ParseDataURL(dataURL string) (*Image, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, &domain.InvalidImageFormatError{Reason: "not a data URL"}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, &domain.InvalidImageFormatError{Reason: "missing payload"}
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, &domain.InvalidImageFormatError{Reason: "payload must be base64"}
	}
	mimeType = strings.ToLower(mimeType)
	if !supportedImageTypes[mimeType] {
		return nil, &domain.InvalidImageFormatError{Reason: fmt.Sprintf("unsupported type %q", mimeType)}
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > config.MaxImageBytes {
		return nil, &domain.InvalidImageFormatError{Reason: fmt.Sprintf("image larger than %d bytes", config.MaxImageBytes)}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &domain.InvalidImageFormatError{Reason: "invalid base64 payload"}
	}
	if len(data) == 0 {
		return nil, &domain.InvalidImageFormatError{Reason: "empty image"}
	}

	return &Image{MIMEType: mimeType, Data: data}, nil
}
