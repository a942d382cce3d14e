// Package storage implements the upload sink: raw file bytes stored
// outside the database, addressed by opaque handles.
package storage

// Sink is the interface for uploaded-content storage. Handles are
// opaque strings minted by Save; callers persist them alongside the
// owning row and never interpret their structure.
type Sink interface {
	// Save stores content and returns its handle. ext is the file
	// extension used for the on-disk name, including the dot.
	Save(content []byte, ext string) (string, error)
	// Read returns the raw bytes for a handle.
	Read(handle string) ([]byte, error)
	// Delete removes the content for a handle. Deleting a missing
	// handle is not an error.
	Delete(handle string) error
}
