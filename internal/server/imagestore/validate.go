package imagestore

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

// DefaultMaxSize is the upload limit used when none is configured.
const DefaultMaxSize int64 = 5 * 1024 * 1024

// AllowedTypes are the accepted image content types.
var AllowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Validate checks size and sniffs the content type from the data itself.
// The declared type of an upload is not trusted.
func Validate(data []byte, maxSize int64) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image is empty", common.ErrorValidation)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if int64(len(data)) > maxSize {
		return "", fmt.Errorf("%w: image is %s, the limit is %s", common.ErrorValidation,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(maxSize)))
	}

	m := mimetype.Detect(data)
	for _, allowed := range AllowedTypes {
		if m.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported image type %s", common.ErrorValidation, m.String())
}
