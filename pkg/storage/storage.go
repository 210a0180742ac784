// Package storage keeps generated files, scoped to the session that created
// them, in memory or on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a file does not exist for the given owner
var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations. Every file belongs
// to one owner; lookups with another owner's id fail with ErrNotFound.
type Storage interface {
	// Upload stores a file and returns its metadata
	Upload(ctx context.Context, ownerID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Download retrieves a file by its ID
	Download(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) error

	// List returns all files for an owner
	List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without downloading
	GetInfo(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (*FileInfo, error)

	// Sweep removes every file created before cutoff and reports how many went
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeMemory StorageType = "memory"
	StorageTypeLocal  StorageType = "local"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeMemory, "":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func notFound(fileID uuid.UUID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fileID)
}
