package repositories

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *badger.DB {
	t.Helper()
	options := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testIndex(t *testing.T) *bluge.Writer {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return writer
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
