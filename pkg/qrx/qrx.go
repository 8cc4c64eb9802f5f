// Package qrx renders QR codes for out-of-band provisioning artifacts.
package qrx

import (
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image edge length in pixels.
const DefaultSize = 256

var ErrEmptyContent = errors.New("qrx: empty content")

// EncodePNG renders the content as a PNG QR code of the given size.
// A size of 0 uses DefaultSize.
func EncodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrx: encode: %w", err)
	}
	return png, nil
}

// EncodeBase64PNG renders the content as a PNG QR code and returns it
// base64 encoded for embedding in JSON responses.
func EncodeBase64PNG(content string, size int) (string, error) {
	png, err := EncodePNG(content, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
