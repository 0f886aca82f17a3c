// Package qrcode renders QR codes as PNG images for embedding in HTML views.
package qrcode

import (
	"encoding/base64"
	"errors"
	"html/template"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("qr code content cannot be empty")
	ErrGenerate     = errors.New("failed to generate qr code")
)

const defaultSize = 256

// PNG encodes content as a size×size PNG with medium error correction.
// Non-positive sizes fall back to 256 pixels.
func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerate, err)
	}
	return png, nil
}

// DataURI returns the QR code as a data:image/png URI typed for html/template,
// so the image survives URL sanitising in src attributes.
func DataURI(content string, size int) (template.URL, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
