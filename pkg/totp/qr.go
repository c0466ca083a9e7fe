package totp

import (
	"encoding/base64"
	"fmt"

	skipqrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the PNG edge length in pixels.
const DefaultQRSize = 256

// RenderQRImage encodes uri as a PNG QR code at DefaultQRSize.
func RenderQRImage(uri string) ([]byte, error) {
	return RenderQRImageSize(uri, DefaultQRSize)
}

// RenderQRImageSize is RenderQRImage with an explicit size. Output is
// deterministic for the same input.
func RenderQRImageSize(uri string, size int) ([]byte, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty content", ErrEncoding)
	}
	png, err := skipqrcode.Encode(uri, skipqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return png, nil
}

// DataURI wraps a PNG for inline use in an <img> tag or JSON payload.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
