// Package storage persists the vault and the generated site through
// afero file systems.
package storage

// Provider is the file-system abstraction used by the collector and the
// site stores. Paths are slash-separated and relative to the root.
type Provider interface {
	// List returns every file under dir whose extension is ext.
	List(dir, ext string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Remove deletes the file at path.
	Remove(path string) error
}

var _ Provider = (*FS)(nil)
