package files

import (
	"errors"
	"io"
	"time"
)

// Domain errors. Handlers map these to HTTP statuses in one place.
var (
	// ErrNotFound covers both "never existed" and "expired and reclaimed".
	ErrNotFound = errors.New("file not found")

	// ErrNoFile is returned when an upload carries no file payload.
	ErrNoFile = errors.New("no file provided")

	// ErrInvalidTTL is returned when a TTL is supplied but is not a
	// non-negative integer number of seconds.
	ErrInvalidTTL = errors.New("ttl must be a non-negative integer")
)

// File represents the metadata of a stored file
type File struct {
	ID          string     `json:"id"`
	Name        string     `json:"filename"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	Path        string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the record's expiry deadline has passed at now.
// Records without a deadline never expire. This is the single expiry
// predicate; every read path and the background sweep use it (or its SQL
// equivalent, expires_at <= now).
func (f *File) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && !f.ExpiresAt.After(now)
}

// Repository defines the interface for storing and retrieving file metadata
type Repository interface {
	Create(file *File) error
	FindByID(id string) (*File, error)
	FindByName(name string) ([]*File, error)
	FindLatestByName(name string) (*File, error)
	List() ([]*File, error)
	ListExpired(now time.Time) ([]*File, error)
	Delete(id string) error
	DeleteByName(name string) (int, error)
}

// Storage defines the interface for the physical file storage
type Storage interface {
	Save(id string, content io.Reader) (path string, size int64, err error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
}
