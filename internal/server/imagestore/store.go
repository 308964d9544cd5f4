// Package imagestore uploads entry illustrations to an external object store
// and removes them when they are no longer referenced.
package imagestore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

// Store is the image store contract. Upload returns the public URL saved in
// the entry; Delete removes the object behind such a URL. A nil error from
// Delete means the object is gone.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Disabled is used when no bucket is configured. Entries without images
// still work; any image operation fails with common.ErrorStorage.
type Disabled struct{}

func (Disabled) Upload(context.Context, []byte, string) (string, error) {
	return "", fmt.Errorf("%w: image storage is not configured", common.ErrorStorage)
}

func (Disabled) Delete(_ context.Context, url string) error {
	return fmt.Errorf("%w: image storage is not configured, cannot delete %s", common.ErrorStorage, url)
}
