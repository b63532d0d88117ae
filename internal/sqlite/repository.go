package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minibucket/minibucket/internal/files"
	_ "modernc.org/sqlite"
)

// Repository implements files.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// initSchema creates the necessary database tables. Timestamps are stored
// as integer Unix nanoseconds so range comparisons and ordering stay exact.
func (r *Repository) initSchema() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		path TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER
	);`
	if _, err := r.db.Exec(createTableQuery); err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	createIndexesQuery := `
	CREATE INDEX IF NOT EXISTS idx_files_expires_at ON files(expires_at);
	CREATE INDEX IF NOT EXISTS idx_files_name_created_at ON files(name, created_at);
	`
	if _, err := r.db.Exec(createIndexesQuery); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Create stores file metadata
func (r *Repository) Create(file *files.File) error {
	query := `
	INSERT INTO files (id, name, content_type, size, path, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var expiresAt any
	if file.ExpiresAt != nil {
		expiresAt = file.ExpiresAt.UnixNano()
	}

	_, err := r.db.Exec(query,
		file.ID,
		file.Name,
		file.ContentType,
		file.Size,
		file.Path,
		file.CreatedAt.UnixNano(),
		expiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}

	return nil
}

// FindByID retrieves file metadata by ID
func (r *Repository) FindByID(id string) (*files.File, error) {
	query := `
	SELECT id, name, content_type, size, path, created_at, expires_at
	FROM files
	WHERE id = ?
	`

	file, err := scanFile(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, files.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find file: %w", err)
	}

	return file, nil
}

// FindByName retrieves all file metadata with the given original filename,
// newest first.
func (r *Repository) FindByName(name string) ([]*files.File, error) {
	query := `
	SELECT id, name, content_type, size, path, created_at, expires_at
	FROM files
	WHERE name = ?
	ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query files by name: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// FindLatestByName retrieves the most recently created file with the given
// original filename. Creation-time ties break by id, descending.
func (r *Repository) FindLatestByName(name string) (*files.File, error) {
	query := `
	SELECT id, name, content_type, size, path, created_at, expires_at
	FROM files
	WHERE name = ?
	ORDER BY created_at DESC, id DESC
	LIMIT 1
	`

	file, err := scanFile(r.db.QueryRow(query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, files.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find file by name: %w", err)
	}

	return file, nil
}

// List retrieves all file metadata, newest first
func (r *Repository) List() ([]*files.File, error) {
	query := `
	SELECT id, name, content_type, size, path, created_at, expires_at
	FROM files
	ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// ListExpired retrieves all records whose expiry deadline has passed at now.
func (r *Repository) ListExpired(now time.Time) ([]*files.File, error) {
	query := `
	SELECT id, name, content_type, size, path, created_at, expires_at
	FROM files
	WHERE expires_at IS NOT NULL AND expires_at <= ?
	`

	rows, err := r.db.Query(query, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// Delete removes file metadata by ID
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return files.ErrNotFound
	}

	return nil
}

// DeleteByName removes every record with the given original filename and
// returns how many were removed. Zero is not an error.
func (r *Repository) DeleteByName(name string) (int, error) {
	result, err := r.db.Exec(`DELETE FROM files WHERE name = ?`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to delete file records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*files.File, error) {
	var file files.File
	var createdAt int64
	var expiresAt sql.NullInt64
	err := row.Scan(
		&file.ID,
		&file.Name,
		&file.ContentType,
		&file.Size,
		&file.Path,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}
	file.CreatedAt = time.Unix(0, createdAt)
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64)
		file.ExpiresAt = &t
	}
	return &file, nil
}

func collectFiles(rows *sql.Rows) ([]*files.File, error) {
	fileList := []*files.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		fileList = append(fileList, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file rows: %w", err)
	}

	return fileList, nil
}
