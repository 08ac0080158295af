// Package qrcode renders share links as QR code images.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

var ErrEmptyContent = errors.New("qrcode: content must not be empty")

// Encoder produces QR code PNGs with medium error correction.
// The zero value is not usable; call NewEncoder.
type Encoder struct {
	size  int
	level goqrcode.RecoveryLevel
}

// NewEncoder returns an encoder producing images of size x size pixels.
// A non-positive size falls back to DefaultSize.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size, level: goqrcode.Medium}
}

// EncodePNG returns a PNG that decodes to exactly content.
func (e *Encoder) EncodePNG(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	png, err := goqrcode.Encode(content, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// EncodeBase64 returns the standard base64 text of EncodePNG, suitable for a
// data:image/png;base64 URI.
func (e *Encoder) EncodeBase64(content string) (string, error) {
	png, err := e.EncodePNG(content)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
