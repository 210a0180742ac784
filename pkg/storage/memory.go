package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryFile struct {
	info FileInfo
	data []byte
}

// MemoryStorage implements Storage in process memory. Nothing touches disk.
type MemoryStorage struct {
	mu    sync.RWMutex
	files map[uuid.UUID]*memoryFile
	now   func() time.Time
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		files: make(map[uuid.UUID]*memoryFile),
		now:   time.Now,
	}
}

// Upload stores a file and returns its metadata
func (s *MemoryStorage) Upload(ctx context.Context, ownerID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fileID := uuid.New()
	f := &memoryFile{
		info: FileInfo{
			ID:          fileID,
			OwnerID:     ownerID,
			Name:        filename,
			Size:        int64(len(data)),
			ContentType: contentType,
			Path:        fileID.String(),
			CreatedAt:   s.now(),
		},
		data: data,
	}

	s.mu.Lock()
	s.files[fileID] = f
	s.mu.Unlock()

	info := f.info
	return &info, nil
}

// Download retrieves a file by its ID
func (s *MemoryStorage) Download(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok || f.info.OwnerID != ownerID {
		return nil, nil, notFound(fileID)
	}
	info := f.info
	return io.NopCloser(bytes.NewReader(f.data)), &info, nil
}

// Delete removes a file by its ID
func (s *MemoryStorage) Delete(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok || f.info.OwnerID != ownerID {
		return notFound(fileID)
	}
	delete(s.files, fileID)
	return nil
}

// List returns all files for an owner, oldest first
func (s *MemoryStorage) List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]*FileInfo, 0)
	for _, f := range s.files {
		if f.info.OwnerID == ownerID {
			info := f.info
			files = append(files, &info)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.Before(files[j].CreatedAt) })
	return files, nil
}

// GetInfo returns metadata for a file without downloading
func (s *MemoryStorage) GetInfo(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok || f.info.OwnerID != ownerID {
		return nil, notFound(fileID)
	}
	info := f.info
	return &info, nil
}

// Sweep removes every file created before cutoff
func (s *MemoryStorage) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, f := range s.files {
		if f.info.CreatedAt.Before(cutoff) {
			delete(s.files, id)
			removed++
		}
	}
	return removed, nil
}
