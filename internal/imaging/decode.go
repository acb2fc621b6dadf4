package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"strings"
)

// Decode parses raw image bytes into an image.Image.
//
// Supported formats are PNG, JPEG, and GIF. The concrete type of the
// returned image depends on the source format and color model
// (e.g., *image.RGBA, *image.NRGBA, *image.YCbCr).
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBase64 decodes a base64-encoded image payload as submitted over
// the HTTP API. A leading data URL prefix ("data:image/png;base64,") is
// stripped if present.
func DecodeBase64(payload string) (image.Image, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.IndexByte(payload, ','); i >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	return Decode(data)
}
