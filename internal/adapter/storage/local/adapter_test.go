package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
)

func newTestAdapter(t *testing.T) storageadapter.Connection {
	t.Helper()
	conn, err := NewLocalAdapter(storageadapter.StorageConfig{
		Type:    ProviderType,
		BaseDir: t.TempDir(),
	}, "artifacts")
	require.NoError(t, err)
	return conn
}

func TestLocalAdapter_UploadDownloadRoundTrip(t *testing.T) {
	conn := newTestAdapter(t)
	ctx := context.Background()

	err := conn.Upload(ctx, "forecast/date=2025-04-01/part-0000.parquet", strings.NewReader("payload"), "application/octet-stream")
	require.NoError(t, err)

	r, err := conn.Download(ctx, "forecast/date=2025-04-01/part-0000.parquet")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalAdapter_ListObjectsHonorsPrefix(t *testing.T) {
	conn := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, conn.Upload(ctx, "forecast/a.csv", strings.NewReader("a"), "text/csv"))
	require.NoError(t, conn.Upload(ctx, "forecast/b.csv", strings.NewReader("b"), "text/csv"))
	require.NoError(t, conn.Upload(ctx, "maps/c.png", strings.NewReader("c"), "image/png"))

	var names []string
	err := conn.ListObjects(ctx, "forecast/", func(objectName string) error {
		names = append(names, objectName)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"forecast/a.csv", "forecast/b.csv"}, names)
}

func TestLocalAdapter_DeleteObject(t *testing.T) {
	conn := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, conn.Upload(ctx, "forecast/a.csv", strings.NewReader("a"), "text/csv"))
	require.NoError(t, conn.DeleteObject(ctx, "forecast/a.csv"))

	_, err := conn.Download(ctx, "forecast/a.csv")
	assert.Error(t, err)
}

func TestLocalAdapter_RejectsEscapingObjectNames(t *testing.T) {
	conn := newTestAdapter(t)
	ctx := context.Background()

	err := conn.Upload(ctx, "../escape.txt", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestNewLocalAdapter_RequiresBaseDir(t *testing.T) {
	_, err := NewLocalAdapter(storageadapter.StorageConfig{Type: ProviderType}, "artifacts")
	assert.Error(t, err)
}
