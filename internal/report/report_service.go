// Package report produces the per-city PDF and CSV reports.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-pdf/fpdf"

	storageadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
	"github.com/marina21-cs/weteweta.github.io/internal/config"
	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/repository"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const ModuleReportService = "ReportService"

const dateLayout = "2006-01-02"

// Service answers a city query: it prints the city's historical daily
// records and writes report_<city>.pdf plus report_<city>.csv through the
// artifact storage connection. City names match case-insensitively.
type Service struct {
	store repository.RecordStore
	conn  storageadapter.Connection
	cfg   config.ReportConfig
	out   io.Writer
}

// NewService creates a report Service. out receives the printed historical
// records (normally os.Stdout).
func NewService(store repository.RecordStore, conn storageadapter.Connection, cfg config.ReportConfig, out io.Writer) *Service {
	return &Service{store: store, conn: conn, cfg: cfg, out: out}
}

// GenerateCityReport looks up the city and writes its report files. A city
// with no data prints a message and returns without error.
func (s *Service) GenerateCityReport(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return exception.New(ModuleReportService, "empty city name", nil, true)
	}

	records, err := s.store.ListDailyRecordsByCity(ctx, city)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(s.out, "No data available for city '%s'.\n", city)
		return nil
	}

	// The stored spelling wins over whatever casing the user typed.
	canonical := records[0].CityName
	s.printHistory(canonical, records)

	points, err := s.store.ListForecastPointsByCity(ctx, canonical)
	if err != nil {
		return err
	}

	base := fileBaseName(canonical)
	if err := s.writePDF(ctx, canonical, base, records, points); err != nil {
		return err
	}
	if err := s.writeCSV(ctx, base, points); err != nil {
		return err
	}
	return nil
}

// printHistory writes the historical daily records as a plain table.
func (s *Service) printHistory(city string, records []forecast_entity.DailyRecord) {
	fmt.Fprintf(s.out, "Historical daily records for %s (%d days):\n", city, len(records))
	fmt.Fprintf(s.out, "%-12s %10s %10s %10s %10s %12s\n",
		"date", "temp", "rain", "wind", "clouds", "visibility")
	for _, r := range records {
		fmt.Fprintf(s.out, "%-12s %10.2f %10.2f %10.2f %10.2f %12.1f\n",
			r.Date.Format(dateLayout), r.Temperature, r.Rainfall, r.WindSpeed, r.CloudCover, r.Visibility)
	}
}

// writePDF renders report_<city>.pdf with the historical summary and the
// forecast table, then uploads it.
func (s *Service) writePDF(ctx context.Context, city, base string, records []forecast_entity.DailyRecord, points []forecast_entity.ForecastPoint) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Weather report: %s", city), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Observed: %s to %s (%d days)",
		records[0].Date.Format(dateLayout),
		records[len(records)-1].Date.Format(dateLayout),
		len(records)), "", 1, "L", false, 0, "")

	var meanTemp, totalRain float64
	for _, r := range records {
		meanTemp += r.Temperature
		totalRain += r.Rainfall
	}
	meanTemp /= float64(len(records))
	pdf.CellFormat(0, 7, fmt.Sprintf("Mean temperature: %.1f degC    Total rainfall: %.1f mm",
		meanTemp, totalRain), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	if len(points) == 0 {
		pdf.CellFormat(0, 8, "No forecast available.", "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(0, 8, fmt.Sprintf("Forecast (%d days)", len(points)), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 7, "Date", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, "Temperature (degC)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, "Rainfall (mm)", "1", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		for _, p := range points {
			pdf.CellFormat(40, 6, p.Date.Format(dateLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 6, fmt.Sprintf("%.2f", p.Temperature), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 6, fmt.Sprintf("%.2f", p.Rainfall), "1", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return exception.New(ModuleReportService,
			fmt.Sprintf("failed to render PDF report for '%s'", city), err, true)
	}

	target := path.Join(s.cfg.OutputBaseDir, fmt.Sprintf("report_%s.pdf", base))
	if err := s.conn.Upload(ctx, target, &buf, "application/pdf"); err != nil {
		return exception.New(ModuleReportService,
			fmt.Sprintf("failed to upload '%s'", target), err, true)
	}
	logger.Infof("Wrote '%s'.", target)
	return nil
}

// writeCSV uploads report_<city>.csv holding the city's forecast points.
func (s *Service) writeCSV(ctx context.Context, base string, points []forecast_entity.ForecastPoint) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"city_name", "date", "temperature", "rainfall"})
	for _, p := range points {
		w.Write([]string{
			p.CityName,
			p.Date.Format(dateLayout),
			fmt.Sprintf("%.2f", p.Temperature),
			fmt.Sprintf("%.2f", p.Rainfall),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return exception.New(ModuleReportService, "failed to encode report CSV", err, true)
	}

	target := path.Join(s.cfg.OutputBaseDir, fmt.Sprintf("report_%s.csv", base))
	if err := s.conn.Upload(ctx, target, &buf, "text/csv"); err != nil {
		return exception.New(ModuleReportService,
			fmt.Sprintf("failed to upload '%s'", target), err, true)
	}
	logger.Infof("Wrote '%s'.", target)
	return nil
}

// fileBaseName turns a city name into a filename-safe token.
func fileBaseName(city string) string {
	lower := strings.ToLower(city)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
