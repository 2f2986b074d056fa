// Package storage keeps photo captures on disk.
package storage

import "time"

// Object describes a stored capture.
type Object struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider stores capture files under a root. Paths are relative to it.
type Provider interface {
	// List returns every capture under dir.
	List(dir string) ([]Object, error)
	Read(path string) ([]byte, error)
	// Write replaces path atomically and returns the content checksum.
	Write(path string, content []byte) (string, error)
	// Delete removes path. A missing path wraps fs.ErrNotExist.
	Delete(path string) error
}
