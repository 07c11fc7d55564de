package activitylog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/alarm-controller/internal/config"
	"github.com/oshokin/alarm-controller/internal/repository"
)

// Storage is the non-volatile home of the activity log blob.
type Storage interface {
	// Read returns the last written blob or ErrNotFound.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the blob in one pass.
	Write(ctx context.Context, blob []byte) error
}

// ErrNotFound is returned when no blob was ever written.
var ErrNotFound = errors.New("activity log not found")

// FileStorage keeps the blob in a single file replaced atomically on every write.
type FileStorage struct {
	// path is the filesystem location of the blob.
	path string
	// mu serialises access to the file.
	mu sync.Mutex
}

// NewFileStorage creates a storage backed by the file at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{
		path: filepath.Clean(path),
	}
}

// Read loads the blob from disk.
func (s *FileStorage) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := repository.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read activity log: %w", err)
	}

	return blob, nil
}

// Write replaces the blob on disk.
func (s *FileStorage) Write(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := repository.WriteFileAtomic(s.path, blob, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}

	return nil
}

// MemoryStorage keeps the blob in memory. Reusing one instance across two
// Log values emulates a reboot; writes can be made to fail on demand.
type MemoryStorage struct {
	// mu guards every field below.
	mu sync.Mutex
	// blob is the last successfully written data, nil when never written.
	blob []byte
	// writeErr is returned by Write when set.
	writeErr error
	// writes counts successful writes.
	writes int
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return new(MemoryStorage)
}

// Read returns a copy of the last written blob.
func (s *MemoryStorage) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blob == nil {
		return nil, ErrNotFound
	}

	return append([]byte(nil), s.blob...), nil
}

// Write stores a copy of blob unless a failure was injected.
func (s *MemoryStorage) Write(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}

	s.blob = append([]byte(nil), blob...)
	s.writes++

	return nil
}

// SetWriteError makes subsequent writes fail with err; nil restores them.
func (s *MemoryStorage) SetWriteError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeErr = err
}

// Writes returns the number of successful writes.
func (s *MemoryStorage) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes
}

// Corrupt flips one byte of the stored blob, for tests of damaged media.
func (s *MemoryStorage) Corrupt(offset int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset >= 0 && offset < len(s.blob) {
		s.blob[offset] ^= 0xFF
	}
}
