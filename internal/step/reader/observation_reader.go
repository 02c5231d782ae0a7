// Package reader streams hourly weather observations from the input CSV.
package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/marina21-cs/weteweta.github.io/internal/domain/model"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const ModuleObservationReader = "ObservationReader"

// Required CSV columns. Extra columns (sunrise, sunset, description, ...)
// are ignored.
var requiredColumns = []string{
	"city_name",
	"datetime",
	"main.temp",
	"rain.1h",
	"wind.speed",
	"wind.gust",
	"clouds.all",
	"visibility",
}

// Timestamp layouts accepted for the datetime column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ErrRowSkipped marks a malformed row the reader skipped. Callers count
// these rather than aborting the ingest.
var ErrRowSkipped = fmt.Errorf("observation row skipped")

// ObservationReader reads hourly observations from a CSV file, one row per
// Read call. Optional numeric columns that fail to parse come back as NaN
// for the aggregation stage to impute.
type ObservationReader struct {
	path    string
	file    *os.File
	csv     *csv.Reader
	columns map[string]int
	rowNum  int
}

// NewObservationReader creates a reader over the given CSV path.
func NewObservationReader(path string) *ObservationReader {
	return &ObservationReader{path: path}
}

// Open opens the file and validates the header. A missing required column
// is fatal: it is raised here, before any aggregation or training occurs.
func (r *ObservationReader) Open(ctx context.Context) error {
	file, err := os.Open(r.path)
	if err != nil {
		return exception.New(ModuleObservationReader,
			fmt.Sprintf("failed to open observation CSV '%s'", r.path), err, false)
	}
	r.file = file

	r.csv = csv.NewReader(file)
	r.csv.FieldsPerRecord = -1

	header, err := r.csv.Read()
	if err != nil {
		file.Close()
		return exception.New(ModuleObservationReader, "failed to read CSV header", err, false)
	}

	r.columns = make(map[string]int, len(header))
	for i, name := range header {
		r.columns[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := r.columns[name]; !ok {
			file.Close()
			return exception.Newf(ModuleObservationReader,
				"observation CSV '%s' is missing required column '%s'", r.path, name)
		}
	}

	logger.Infof("Opened observation CSV '%s' (%d columns).", r.path, len(header))
	return nil
}

// Read returns the next observation. io.EOF signals the end of the file;
// ErrRowSkipped (wrapped) signals a malformed row that should be counted
// and skipped.
func (r *ObservationReader) Read(ctx context.Context) (*model.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		r.rowNum++
		logger.Warnf("Row %d: unreadable CSV record: %v", r.rowNum, err)
		return nil, fmt.Errorf("%w: row %d: %v", ErrRowSkipped, r.rowNum, err)
	}
	r.rowNum++

	city := r.field(record, "city_name")
	if city == "" {
		return nil, fmt.Errorf("%w: row %d: empty city_name", ErrRowSkipped, r.rowNum)
	}

	timestamp, err := parseTimestamp(r.field(record, "datetime"))
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %v", ErrRowSkipped, r.rowNum, err)
	}

	temperature, err := strconv.ParseFloat(r.field(record, "main.temp"), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: bad main.temp: %v", ErrRowSkipped, r.rowNum, err)
	}

	return &model.Observation{
		CityName:    city,
		Timestamp:   timestamp,
		Temperature: temperature,
		Rainfall:    r.optionalField(record, "rain.1h"),
		WindSpeed:   r.optionalField(record, "wind.speed"),
		WindGust:    r.optionalField(record, "wind.gust"),
		CloudCover:  r.optionalField(record, "clouds.all"),
		Visibility:  r.optionalField(record, "visibility"),
	}, nil
}

// Close closes the underlying file.
func (r *ObservationReader) Close(ctx context.Context) error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *ObservationReader) field(record []string, name string) string {
	idx := r.columns[name]
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

// optionalField parses a float column, returning NaN when the value is
// absent or unparseable.
func (r *ObservationReader) optionalField(record []string, name string) float64 {
	raw := r.field(record, name)
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime '%s'", raw)
}
