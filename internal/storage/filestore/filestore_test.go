package filestore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"phonereuse/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissingFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials", "phone_numbers.json")
	store := New(path, discardLogger())

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadCorruptFileIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phone_numbers.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	records, err := New(path, discardLogger()).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Nil(t, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "phone_numbers.json")
	store := New(path, discardLogger())
	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	in := []entity.PhoneRecord{{
		PhoneNumber:  "+10000000001",
		CountryCode:  "187",
		ActivationID: "123456",
		FirstUsed:    first,
		LastUsed:     first.Add(10 * time.Minute),
		Services:     []string{"go", "yt"},
		TimesUsed:    2,
	}}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].PhoneNumber, out[0].PhoneNumber)
	assert.True(t, in[0].FirstUsed.Equal(out[0].FirstUsed))
	assert.True(t, in[0].LastUsed.Equal(out[0].LastUsed))
	assert.Equal(t, in[0].Services, out[0].Services)
	assert.Equal(t, 2, out[0].TimesUsed)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phone_numbers.json")
	require.NoError(t, New(path, discardLogger()).Save(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestSaveFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// the parent "directory" is a regular file
	store := New(filepath.Join(blocker, "phone_numbers.json"), discardLogger())
	assert.Error(t, store.Save(context.Background(), []entity.PhoneRecord{{PhoneNumber: "+10000000001"}}))
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, New("", discardLogger()).Path())
}
