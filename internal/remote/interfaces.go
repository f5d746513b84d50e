// Package remote gives the sync core a file-oriented view of the cloud
// store: PUT/GET/DELETE/MKCOL-style operations against string paths rooted at
// a configured base path. The core assumes nothing beyond single-object
// read-after-write within one connection; convergence between devices is the
// engine's problem, not the transport's.
package remote

import "context"

// Client is the remote blob store capability the sync core consumes.
// Implementations must be safe for concurrent use; the engine issues up to a
// handful of calls in parallel.
type Client interface {
	// Upload writes data to path, overwriting any existing object.
	Upload(ctx context.Context, path string, data []byte) error

	// Download reads the object at path. Returns an error wrapping
	// ErrNotFound when the object does not exist.
	Download(ctx context.Context, path string) ([]byte, error)

	// Delete removes the object at path. Returns an error wrapping
	// ErrNotFound when there is nothing to remove.
	Delete(ctx context.Context, path string) error

	// CreateDirectory creates the collection at path. Creating a
	// directory that already exists is not an error.
	CreateDirectory(ctx context.Context, path string) error

	// Exists reports whether an object is present at path without
	// transferring its body.
	Exists(ctx context.Context, path string) (bool, error)

	// TestConnection performs a single lightweight probe against the
	// configured base path, verifying reachability and credentials.
	TestConnection(ctx context.Context) error
}
