package core

import "context"

// ObjectRef identifies one stored object within the blob store.
type ObjectRef struct {
	Path string
	URL  string
}

// BlobStore is any service that can store and remove uploaded files.
// The document records referencing these files live in a separate store;
// the two are eventually, not atomically, consistent.
type BlobStore interface {
	// Upload stores data under path and returns a public locator URL.
	Upload(ctx context.Context, path string, data []byte) (string, error)
	// List enumerates all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectRef, error)
	// Delete removes one object. Deleting an object that no longer exists
	// is not an error; retries of a partially applied cleanup must converge.
	Delete(ctx context.Context, ref ObjectRef) error
}
