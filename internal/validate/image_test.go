package validate

import (
	"errors"
	"testing"

	"avatarbooth/internal/domain"
)

func pngPayload(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	return data
}

func jpegPayload(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	return data
}

func TestImage(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		data     []byte
		wantType string
		wantErr  bool
	}{
		{name: "png under limit", filename: "selfie.PNG", data: pngPayload(1024), wantType: "image/png"},
		{name: "jpg under limit", filename: "selfie.jpg", data: jpegPayload(2048), wantType: "image/jpeg"},
		{name: "jpeg extension", filename: "photo.jpeg", data: jpegPayload(512), wantType: "image/jpeg"},
		{name: "just below limit", filename: "big.png", data: pngPayload(MaxImageBytes - 1), wantType: "image/png"},
		{name: "at limit", filename: "big.png", data: pngPayload(MaxImageBytes), wantErr: true},
		{name: "over limit", filename: "huge.png", data: pngPayload(3 * 1024 * 1024), wantErr: true},
		{name: "empty payload", filename: "empty.png", data: nil, wantErr: true},
		{name: "unsupported extension", filename: "anim.gif", data: pngPayload(100), wantErr: true},
		{name: "no extension", filename: "selfie", data: pngPayload(100), wantErr: true},
		{name: "content mismatch", filename: "fake.png", data: jpegPayload(100), wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			contentType, err := Image(tc.filename, tc.data)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got content type %q", contentType)
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("error = %v, want wrapped ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Image returned error: %v", err)
			}
			if contentType != tc.wantType {
				t.Fatalf("content type = %q, want %q", contentType, tc.wantType)
			}
		})
	}
}
