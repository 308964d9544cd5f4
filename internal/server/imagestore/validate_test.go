package imagestore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func TestValidate_AcceptsImages(t *testing.T) {
	for want, data := range map[string][]byte{
		"image/png":  pngHeader,
		"image/gif":  gifHeader,
		"image/jpeg": jpegHeader,
	} {
		got, err := Validate(data, 0)
		require.NoError(t, err, want)
		assert.Equal(t, want, got)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		max  int64
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("hello, not an image")},
		{name: "too large", data: append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...), max: 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.data, tt.max)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}
