package storage

import (
	"context"

	"github.com/JaimeStill/pdf-reader/internal/lifecycle"
)

// System defines scratch blob storage for selected files.
// Keys are slash-separated relative paths; implementations reject traversal.
type System interface {
	// Store saves data at the specified key, overwriting any existing contents.
	// Returns ErrInvalidKey if the key is empty or contains path traversal.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the data stored at the specified key.
	// Returns ErrNotFound if the key does not exist.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes the data at the specified key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Path resolves a key to a local filesystem path for consumers that
	// can only read from files.
	Path(ctx context.Context, key string) (string, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}
