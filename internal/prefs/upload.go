package prefs

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

// MaxUploadBytes bounds an uploaded background image.
const MaxUploadBytes = 5 << 20

var (
	ErrUploadTooLarge  = errors.New("background image exceeds 5 MiB")
	ErrUnsupportedType = errors.New("background image must be jpeg, png or webp")
)

var uploadTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// EncodeUpload checks an uploaded image and returns it as a data URL
// suitable for Settings.CustomBackground.
func EncodeUpload(data []byte) (string, error) {
	if len(data) > MaxUploadBytes {
		return "", ErrUploadTooLarge
	}
	_, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	mime, ok := uploadTypes[kind]
	if !ok {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, kind)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL decodes a base64 image data URL.
func DecodeDataURL(s string) (image.Image, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("background is not a base64 data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	img, kind, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if _, ok := uploadTypes[kind]; !ok {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedType, kind)
	}
	return img, nil
}
