package files

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service provides application-level file operations
type Service struct {
	storage Storage
	repo    Repository

	// mu guards reclaim passes so the background sweep and lazy
	// expiry-on-access never delete the same record concurrently.
	mu  sync.Mutex
	now func() time.Time
}

// NewService creates a new file service
func NewService(storage Storage, repo Repository) *Service {
	return &Service{
		storage: storage,
		repo:    repo,
		now:     time.Now,
	}
}

// UploadRequest represents a file upload request
type UploadRequest struct {
	Name        string
	ContentType string
	Content     io.Reader

	// TTL is the requested time-to-live. Nil means the file never expires.
	TTL *time.Duration
}

// Upload stores a file and returns its metadata
func (s *Service) Upload(req *UploadRequest) (*File, error) {
	if req.Content == nil {
		return nil, ErrNoFile
	}
	if req.TTL != nil && *req.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	s.reclaimExpired()

	id := uuid.NewString()

	path, size, err := s.storage.Save(id, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := s.now()
	file := &File{
		ID:          id,
		Name:        req.Name,
		ContentType: contentType,
		Size:        size,
		Path:        path,
		CreatedAt:   now,
	}
	if req.TTL != nil {
		expiresAt := now.Add(*req.TTL)
		file.ExpiresAt = &expiresAt
	}

	if err := s.repo.Create(file); err != nil {
		// Clean up the blob so a half-written upload is never served.
		s.storage.Delete(id)
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}

	return file, nil
}

// List returns all live records, newest first.
func (s *Service) List() ([]*File, error) {
	s.reclaimExpired()
	return s.repo.List()
}

// Get retrieves a live record by ID.
func (s *Service) Get(id string) (*File, error) {
	s.reclaimExpired()

	file, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if file.Expired(s.now()) {
		s.reclaim(file)
		return nil, ErrNotFound
	}
	return file, nil
}

// Download retrieves a live record by ID together with its content.
func (s *Service) Download(id string) (*File, io.ReadCloser, error) {
	file, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.storage.Open(file.ID)
	if err != nil {
		// Metadata without a backing file fails closed: drop the
		// orphaned record and report not found.
		s.reclaim(file)
		return nil, nil, ErrNotFound
	}
	return file, content, nil
}

// FindByName returns all live records whose filename matches exactly,
// newest first. No match is an empty slice, not an error.
func (s *Service) FindByName(name string) ([]*File, error) {
	s.reclaimExpired()
	return s.repo.FindByName(name)
}

// DownloadLatestByName streams the most recently created live record with
// the given filename. Ties on creation time break by identifier, descending.
func (s *Service) DownloadLatestByName(name string) (*File, io.ReadCloser, error) {
	s.reclaimExpired()

	file, err := s.repo.FindLatestByName(name)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.storage.Open(file.ID)
	if err != nil {
		s.reclaim(file)
		return nil, nil, ErrNotFound
	}
	return file, content, nil
}

// Delete removes a live record and its file by ID.
func (s *Service) Delete(id string) error {
	s.reclaimExpired()

	file, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if file.Expired(s.now()) {
		s.reclaim(file)
		return ErrNotFound
	}

	if err := s.storage.Delete(file.ID); err != nil {
		return fmt.Errorf("failed to delete file from storage: %w", err)
	}
	if err := s.repo.Delete(file.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete file metadata: %w", err)
	}
	return nil
}

// DeleteByName removes every live record matching the filename and returns
// how many were removed. Zero matches is a valid outcome.
func (s *Service) DeleteByName(name string) (int, error) {
	s.reclaimExpired()

	matches, err := s.repo.FindByName(name)
	if err != nil {
		return 0, err
	}
	for _, file := range matches {
		if err := s.storage.Delete(file.ID); err != nil {
			return 0, fmt.Errorf("failed to delete file from storage: %w", err)
		}
	}

	return s.repo.DeleteByName(name)
}

// ReclaimExpired removes every expired record and its backing file.
// Returns the number of records removed. Safe to call concurrently; the
// periodic sweep and the lazy per-request pass share this routine.
func (s *Service) ReclaimExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired, err := s.repo.ListExpired(s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired files: %w", err)
	}

	removed := 0
	for _, file := range expired {
		// Both deletes tolerate the record having vanished since it
		// was observed: the blob store treats a missing file as a
		// no-op and a missing row is not an error here.
		if err := s.storage.Delete(file.ID); err != nil {
			continue
		}
		if err := s.repo.Delete(file.ID); err != nil && !errors.Is(err, ErrNotFound) {
			continue
		}
		removed++
	}
	return removed, nil
}

// reclaimExpired is the lazy-path wrapper: reclaim failures must not turn a
// read into an error, so they are swallowed here and left for the sweep.
func (s *Service) reclaimExpired() {
	s.ReclaimExpired()
}

// reclaim removes a single record and its file, ignoring "already gone".
func (s *Service) reclaim(file *File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.storage.Delete(file.ID)
	if err := s.repo.Delete(file.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return
	}
}
