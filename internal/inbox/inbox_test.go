package inbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inbox.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	signed := time.Unix(1_704_067_200, 0).UTC()
	var ids []string
	for _, body := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		e, err := s.Record(ctx, Entry{Signature: "sig" + body, Timestamp: signed, Body: []byte(body)})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.ReceivedAt.IsZero())
		ids = append(ids, e.ID)
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID, "newest first")
	assert.Equal(t, ids[1], got[1].ID)
	assert.Equal(t, `{"n":3}`, string(got[0].Body))
	assert.Equal(t, signed, got[0].Timestamp)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecent_DefaultLimitAndEmpty(t *testing.T) {
	s, _ := openTestStore(t)
	got, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "inbox.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{Signature: "a", Timestamp: time.Now(), Body: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWALMode(t *testing.T) {
	s, _ := openTestStore(t)
	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestCheck_Healthy(t *testing.T) {
	s, _ := openTestStore(t)
	problems, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Nil(t, problems)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
