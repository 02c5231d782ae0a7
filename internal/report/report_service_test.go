package report

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
	"github.com/marina21-cs/weteweta.github.io/internal/adapter/storage/local"
	"github.com/marina21-cs/weteweta.github.io/internal/config"
	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
)

// fakeStore serves canned records with case-insensitive city matching, the
// way the SQL store does.
type fakeStore struct {
	records map[string][]forecast_entity.DailyRecord
	points  map[string][]forecast_entity.ForecastPoint
}

func (f *fakeStore) UpsertDailyRecords(ctx context.Context, records []forecast_entity.DailyRecord) (int, error) {
	return 0, nil
}

func (f *fakeStore) ListCities(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeStore) ListDailyRecordsByCity(ctx context.Context, cityName string) ([]forecast_entity.DailyRecord, error) {
	return f.records[normalize(cityName)], nil
}

func (f *fakeStore) ListAllDailyRecords(ctx context.Context) ([]forecast_entity.DailyRecord, error) {
	return nil, nil
}

func (f *fakeStore) SaveForecastPoints(ctx context.Context, points []forecast_entity.ForecastPoint) (int, error) {
	return 0, nil
}

func (f *fakeStore) ListForecastPointsByCity(ctx context.Context, cityName string) ([]forecast_entity.ForecastPoint, error) {
	return f.points[normalize(cityName)], nil
}

func (f *fakeStore) ListAllForecastPoints(ctx context.Context) ([]forecast_entity.ForecastPoint, error) {
	return nil, nil
}

func normalize(city string) string {
	out := make([]byte, 0, len(city))
	for i := 0; i < len(city); i++ {
		c := city[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func newTestService(t *testing.T) (*Service, storageadapter.Connection, *bytes.Buffer) {
	t.Helper()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		records: map[string][]forecast_entity.DailyRecord{
			"iloilo city": {
				{CityName: "Iloilo City", Date: day, Temperature: 29.1, Rainfall: 0.2, WindSpeed: 2.5, CloudCover: 40, Visibility: 10000},
				{CityName: "Iloilo City", Date: day.AddDate(0, 0, 1), Temperature: 30.0, Rainfall: 1.0, WindSpeed: 3.0, CloudCover: 55, Visibility: 9000},
			},
		},
		points: map[string][]forecast_entity.ForecastPoint{
			"iloilo city": {
				{CityName: "Iloilo City", Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Temperature: 29.5, Rainfall: 0.7},
			},
		},
	}

	conn, err := local.NewLocalAdapter(storageadapter.StorageConfig{
		Type:    local.ProviderType,
		BaseDir: t.TempDir(),
	}, "artifacts")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	svc := NewService(store, conn, config.ReportConfig{
		StorageRef:    "artifacts",
		OutputBaseDir: "reports",
	}, out)
	return svc, conn, out
}

func TestGenerateCityReport_CaseInsensitive(t *testing.T) {
	svc, conn, out := newTestService(t)

	require.NoError(t, svc.GenerateCityReport(context.Background(), "iLoIlO cItY"))

	printed := out.String()
	assert.Contains(t, printed, "Historical daily records for Iloilo City (2 days)")
	assert.Contains(t, printed, "2025-03-01")
	assert.Contains(t, printed, "2025-03-02")

	var names []string
	require.NoError(t, conn.ListObjects(context.Background(), "reports/", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Contains(t, names, "reports/report_iloilo_city.pdf")
	assert.Contains(t, names, "reports/report_iloilo_city.csv")
}

func TestGenerateCityReport_CSVContents(t *testing.T) {
	svc, conn, _ := newTestService(t)
	require.NoError(t, svc.GenerateCityReport(context.Background(), "Iloilo City"))

	r, err := conn.Download(context.Background(), "reports/report_iloilo_city.csv")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "city_name,date,temperature,rainfall")
	assert.Contains(t, content, "Iloilo City,2025-04-01,29.50,0.70")
}

func TestGenerateCityReport_NoData(t *testing.T) {
	svc, conn, out := newTestService(t)

	require.NoError(t, svc.GenerateCityReport(context.Background(), "Nowhere"))
	assert.Contains(t, out.String(), "No data available for city 'Nowhere'.")

	count := 0
	require.NoError(t, conn.ListObjects(context.Background(), "", func(string) error {
		count++
		return nil
	}))
	assert.Zero(t, count)
}

func TestGenerateCityReport_EmptyCity(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.Error(t, svc.GenerateCityReport(context.Background(), "   "))
}

func TestFileBaseName(t *testing.T) {
	assert.Equal(t, "iloilo_city", fileBaseName("Iloilo City"))
	assert.Equal(t, "bi_an", fileBaseName("Biñan"))
}
