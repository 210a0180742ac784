package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDirName = ".meta"

// LocalStorage implements Storage using the local filesystem. Each owner gets a
// directory holding the files and a .meta directory of JSON sidecars.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Upload stores a file and returns its metadata
func (s *LocalStorage) Upload(ctx context.Context, ownerID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	ownerDir := s.ownerDir(ownerID)
	if err := os.MkdirAll(ownerDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create owner directory: %w", err)
	}

	// UUID prefix keeps repeated names apart
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	filePath := filepath.Join(ownerDir, storedFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		OwnerID:     ownerID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        storedFilename,
		CreatedAt:   s.now(),
	}

	if err := s.saveMetadata(ownerID, fileID, info); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	return info, nil
}

// Download retrieves a file by its ID
func (s *LocalStorage) Download(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.ownerDir(ownerID), info.Path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, notFound(fileID)
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes a file by its ID
func (s *LocalStorage) Delete(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	return s.remove(ownerID, info)
}

// List returns all files for an owner
func (s *LocalStorage) List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.ownerDir(ownerID), metaDirName)
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		info, err := s.GetInfo(ctx, ownerID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	return files, nil
}

// GetInfo returns metadata for a file without downloading
func (s *LocalStorage) GetInfo(ctx context.Context, ownerID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(ownerID, fileID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

// Sweep removes every file created before cutoff. Owner directories left empty
// are removed too.
func (s *LocalStorage) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	owners, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list owners: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range owners {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() {
			continue
		}
		ownerID, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}

		files, err := s.List(ctx, ownerID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		kept := 0
		for _, info := range files {
			if !info.CreatedAt.Before(cutoff) {
				kept++
				continue
			}
			if err := s.remove(ownerID, info); err != nil {
				errs = append(errs, err)
				kept++
				continue
			}
			removed++
		}
		if kept == 0 {
			os.RemoveAll(s.ownerDir(ownerID))
		}
	}

	return removed, errors.Join(errs...)
}

func (s *LocalStorage) remove(ownerID uuid.UUID, info *FileInfo) error {
	filePath := filepath.Join(s.ownerDir(ownerID), info.Path)
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := os.Remove(s.metaPath(ownerID, info.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (s *LocalStorage) ownerDir(ownerID uuid.UUID) string {
	return filepath.Join(s.basePath, ownerID.String())
}

func (s *LocalStorage) metaPath(ownerID, fileID uuid.UUID) string {
	return filepath.Join(s.ownerDir(ownerID), metaDirName, fileID.String()+".json")
}

// saveMetadata saves file metadata to a JSON file
func (s *LocalStorage) saveMetadata(ownerID, fileID uuid.UUID, info *FileInfo) error {
	metaDir := filepath.Join(s.ownerDir(ownerID), metaDirName)
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(s.metaPath(ownerID, fileID), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
