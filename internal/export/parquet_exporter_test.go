package export

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go/parquet"

	"github.com/marina21-cs/weteweta.github.io/internal/adapter/storage/local"
	storageadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
	"github.com/marina21-cs/weteweta.github.io/internal/config"
	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
)

func newTestExporter(t *testing.T) (*ParquetExporter, storageadapter.Connection) {
	t.Helper()
	conn, err := local.NewLocalAdapter(storageadapter.StorageConfig{
		Type:    local.ProviderType,
		BaseDir: t.TempDir(),
	}, "artifacts")
	require.NoError(t, err)

	exporter := NewParquetExporter(conn, config.ExportConfig{
		StorageRef:    "artifacts",
		OutputBaseDir: "forecast",
		Compression:   "SNAPPY",
	})
	return exporter, conn
}

func somePoints() []forecast_entity.ForecastPoint {
	d1 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	return []forecast_entity.ForecastPoint{
		{CityName: "Manila", Date: d1, Temperature: 29.1, Rainfall: 0.4, CreatedAt: now},
		{CityName: "Baguio", Date: d1, Temperature: 18.2, Rainfall: 2.1, CreatedAt: now},
		{CityName: "Manila", Date: d2, Temperature: 29.5, Rainfall: 0.0, CreatedAt: now},
	}
}

func TestParquetExporter_PartitionsByDate(t *testing.T) {
	exporter, conn := newTestExporter(t)
	ctx := context.Background()

	written, err := exporter.Export(ctx, somePoints())
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	var partitions []string
	err = conn.ListObjects(ctx, "forecast/", func(objectName string) error {
		partitions = append(partitions, objectName)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, partitions, 2)

	var first, second int
	for _, name := range partitions {
		switch {
		case containsPartition(name, "date=2025-04-01"):
			first++
		case containsPartition(name, "date=2025-04-02"):
			second++
		}
	}
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestParquetExporter_EmptyInput(t *testing.T) {
	exporter, conn := newTestExporter(t)

	written, err := exporter.Export(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, written)

	count := 0
	err = conn.ListObjects(context.Background(), "", func(string) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestParquetExporter_ExportCSV(t *testing.T) {
	exporter, conn := newTestExporter(t)
	ctx := context.Background()

	require.NoError(t, exporter.ExportCSV(ctx, somePoints()))

	r, err := conn.Download(ctx, "forecast/forecast.csv")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "city_name,date,temperature,rainfall")
	assert.Contains(t, content, "Manila,2025-04-01,29.10,0.40")
	assert.Contains(t, content, "Baguio,2025-04-01,18.20,2.10")
}

func TestCompressionCodec(t *testing.T) {
	codec, err := compressionCodec("snappy")
	require.NoError(t, err)
	assert.Equal(t, parquet.CompressionCodec_SNAPPY, codec)

	codec, err = compressionCodec("")
	require.NoError(t, err)
	assert.Equal(t, parquet.CompressionCodec_UNCOMPRESSED, codec)

	_, err = compressionCodec("LZO")
	assert.Error(t, err)
}

func containsPartition(objectName, partition string) bool {
	return strings.HasPrefix(objectName, "forecast/"+partition+"/")
}
