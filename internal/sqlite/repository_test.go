package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minibucket/minibucket/internal/files"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testFile(id, name string, createdAt time.Time, expiresAt *time.Time) *files.File {
	return &files.File{
		ID:          id,
		Name:        name,
		ContentType: "text/plain",
		Size:        3,
		Path:        "/data/objects/" + id,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}
}

func TestCreateAndFindByID(t *testing.T) {
	repo := newTestRepo(t)

	created := time.Now()
	expires := created.Add(time.Hour)
	require.NoError(t, repo.Create(testFile("id-1", "a.txt", created, &expires)))

	got, err := repo.FindByID("id-1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "a.txt", got.Name)
	assert.Equal(t, "text/plain", got.ContentType)
	assert.Equal(t, int64(3), got.Size)
	assert.Equal(t, "/data/objects/id-1", got.Path)
	assert.True(t, got.CreatedAt.Equal(created))
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(expires))
}

func TestFindByIDNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindByID("missing")
	assert.ErrorIs(t, err, files.ErrNotFound)
}

func TestNullExpiresAtRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(testFile("id-1", "a.txt", time.Now(), nil)))

	got, err := repo.FindByID("id-1")
	require.NoError(t, err)
	assert.Nil(t, got.ExpiresAt)
}

func TestListOrdering(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now()
	require.NoError(t, repo.Create(testFile("id-1", "a.txt", base, nil)))
	require.NoError(t, repo.Create(testFile("id-2", "b.txt", base.Add(time.Second), nil)))
	require.NoError(t, repo.Create(testFile("id-3", "c.txt", base.Add(2*time.Second), nil)))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "id-3", list[0].ID)
	assert.Equal(t, "id-2", list[1].ID)
	assert.Equal(t, "id-1", list[2].ID)
}

func TestFindByName(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now()
	require.NoError(t, repo.Create(testFile("id-1", "a.txt", base, nil)))
	require.NoError(t, repo.Create(testFile("id-2", "a.txt", base.Add(time.Second), nil)))
	require.NoError(t, repo.Create(testFile("id-3", "b.txt", base, nil)))

	matches, err := repo.FindByName("a.txt")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "id-2", matches[0].ID)

	matches, err = repo.FindByName("missing.txt")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindLatestByName(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now()
	require.NoError(t, repo.Create(testFile("id-1", "a.txt", base, nil)))
	require.NoError(t, repo.Create(testFile("id-2", "a.txt", base.Add(time.Second), nil)))

	got, err := repo.FindLatestByName("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "id-2", got.ID)

	_, err = repo.FindLatestByName("missing.txt")
	assert.ErrorIs(t, err, files.ErrNotFound)
}

func TestFindLatestByNameTieBreaksOnID(t *testing.T) {
	repo := newTestRepo(t)

	// Identical creation time: the larger identifier wins, regardless of
	// insertion order.
	base := time.Now()
	require.NoError(t, repo.Create(testFile("id-9", "a.txt", base, nil)))
	require.NoError(t, repo.Create(testFile("id-1", "a.txt", base, nil)))

	got, err := repo.FindLatestByName("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "id-9", got.ID)
}

func TestListExpired(t *testing.T) {
	repo := newTestRepo(t)

	now := time.Now()
	past := now.Add(-time.Minute)
	exactly := now
	future := now.Add(time.Minute)

	require.NoError(t, repo.Create(testFile("id-past", "a.txt", past, &past)))
	require.NoError(t, repo.Create(testFile("id-now", "b.txt", past, &exactly)))
	require.NoError(t, repo.Create(testFile("id-future", "c.txt", past, &future)))
	require.NoError(t, repo.Create(testFile("id-never", "d.txt", past, nil)))

	expired, err := repo.ListExpired(now)
	require.NoError(t, err)

	ids := make([]string, 0, len(expired))
	for _, f := range expired {
		ids = append(ids, f.ID)
	}
	assert.ElementsMatch(t, []string{"id-past", "id-now"}, ids)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(testFile("id-1", "a.txt", time.Now(), nil)))

	require.NoError(t, repo.Delete("id-1"))
	assert.ErrorIs(t, repo.Delete("id-1"), files.ErrNotFound)
}

func TestDeleteByName(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now()
	require.NoError(t, repo.Create(testFile("id-1", "a.txt", base, nil)))
	require.NoError(t, repo.Create(testFile("id-2", "a.txt", base, nil)))
	require.NoError(t, repo.Create(testFile("id-3", "b.txt", base, nil)))

	count, err := repo.DeleteByName("a.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.DeleteByName("a.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "id-3", list[0].ID)
}
