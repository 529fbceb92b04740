// Package store persists contract documents. A DocumentStore moves raw bytes
// by location; Repository layers parsing, encoding and migration on top.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/zeebo/xxh3"
)

// ErrNotFound is returned when no document exists at a location.
var ErrNotFound = errors.New("document not found")

// ErrCorrupt is returned when stored content no longer matches its checksum.
var ErrCorrupt = errors.New("document checksum mismatch")

// ErrInvalidLocation is returned for locations ValidateLocation rejects.
var ErrInvalidLocation = errors.New("invalid location")

// DocumentStore reads and writes raw documents by location. Locations are
// slash-separated relative paths such as "jobs/orders.json".
// Implementations must be safe for concurrent use.
type DocumentStore interface {
	Write(ctx context.Context, location string, data []byte) error
	// Read returns ErrNotFound when nothing is stored at location.
	Read(ctx context.Context, location string) ([]byte, error)
	// List returns every stored location in lexical order.
	List(ctx context.Context) ([]string, error)
	// Delete returns ErrNotFound when nothing is stored at location.
	Delete(ctx context.Context, location string) error
}

// ValidateLocation rejects locations that are empty, absolute, or escape the
// store root.
func ValidateLocation(location string) error {
	if location == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLocation)
	}
	if strings.HasPrefix(location, "/") || strings.Contains(location, "\\") {
		return fmt.Errorf("%w %q: must be a relative slash-separated path", ErrInvalidLocation, location)
	}
	if clean := path.Clean(location); clean != location || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w %q: must be a clean path inside the store", ErrInvalidLocation, location)
	}
	return nil
}

// Checksum returns the content hash recorded next to stored documents.
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// VerifyChecksum reports ErrCorrupt when data does not hash to sum.
func VerifyChecksum(location string, data []byte, sum string) error {
	if got := Checksum(data); got != sum {
		return fmt.Errorf("%s: %w (stored %s, computed %s)", location, ErrCorrupt, sum, got)
	}
	return nil
}
