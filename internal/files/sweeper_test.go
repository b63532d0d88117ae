package files

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeperRunOnce(t *testing.T) {
	svc, _, _, now := newTestService(t)
	sweeper := NewSweeper(svc, time.Minute, testLogger())

	upload(t, svc, "a.txt", "one", ttl(time.Second))
	upload(t, svc, "b.txt", "two", nil)

	assert.Equal(t, 0, sweeper.RunOnce())

	*now = now.Add(time.Minute)
	assert.Equal(t, 1, sweeper.RunOnce())
	assert.Equal(t, 0, sweeper.RunOnce())

	list, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSweeperStartStop(t *testing.T) {
	svc, _, repo, now := newTestService(t)
	sweeper := NewSweeper(svc, 10*time.Millisecond, testLogger())

	file := upload(t, svc, "a.txt", "one", ttl(time.Second))
	*now = now.Add(time.Minute)

	sweeper.Start(context.Background())
	defer sweeper.Stop()

	// Check the repository directly so the record cannot be reclaimed by
	// a lazy read path instead of the sweep.
	require.Eventually(t, func() bool {
		_, err := repo.FindByID(file.ID)
		return errors.Is(err, ErrNotFound)
	}, time.Second, 10*time.Millisecond)
}
