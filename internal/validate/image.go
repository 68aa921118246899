// Package validate checks operator-supplied images before any network call is
// made, so an oversized or mistyped file never costs a remote request.
package validate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"avatarbooth/internal/domain"
)

// MaxImageBytes mirrors the provider-side 2MB limit. Files at or over the
// limit are rejected locally.
const MaxImageBytes = 2 * 1024 * 1024

var magicBytes = map[string][]byte{
	"image/png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"image/jpeg": {0xFF, 0xD8, 0xFF},
}

var extContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Image validates the payload and returns the content type to declare on
// upload. All failures wrap domain.ErrValidation.
func Image(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image payload", domain.ErrValidation)
	}
	if len(data) >= MaxImageBytes {
		return "", fmt.Errorf("%w: image is %d bytes, limit is %d", domain.ErrValidation, len(data), MaxImageBytes)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := extContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: unsupported file type %q (want jpg, jpeg or png)", domain.ErrValidation, ext)
	}
	if !bytes.HasPrefix(data, magicBytes[contentType]) {
		return "", fmt.Errorf("%w: file content does not match %s", domain.ErrValidation, contentType)
	}
	return contentType, nil
}
