package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.Record(ctx, Run{
			Query:        "seo tools",
			Language:     "en",
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
			NumRequested: 10,
			NumProcessed: 8 + i,
			NumFailed:    2 - i,
			SummaryPath:  "/out/seo_tools_summary.json",
			Duration:     1500 * time.Millisecond,
		})
		require.NoError(t, err)
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first.
	assert.Equal(t, base.Add(2*time.Hour), runs[0].Timestamp)
	assert.Equal(t, base.Add(time.Hour), runs[1].Timestamp)
	assert.Equal(t, "seo tools", runs[0].Query)
	assert.Equal(t, "en", runs[0].Language)
	assert.Equal(t, 10, runs[0].NumRequested)
	assert.Equal(t, 10, runs[0].NumProcessed)
	assert.Equal(t, 0, runs[0].NumFailed)
	assert.Equal(t, "/out/seo_tools_summary.json", runs[0].SummaryPath)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.NotZero(t, runs[0].ID)
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), Run{
		Query: "q", Language: "en", Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, s.Close())

	// Reopening an existing database must not lose data.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
