package ml

import (
	"sort"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "ml"

// Window is one training sample: windowLength days of scaled features and
// the scaled targets of the following day.
type Window struct {
	CityName string
	// Inputs is windowLength x NumFeatures, scaled to [0, 1].
	Inputs [][]float64
	// Target is the scaled (temperature, rainfall) of the next day.
	Target []float64
}

// Dataset holds the scaled training windows and the scalers that produced
// them. Windows are ordered by city name, then chronologically within each
// city.
type Dataset struct {
	Windows      []Window
	Scalers      Scalers
	WindowLength int
}

// BuildDataset fits pooled min-max scalers over every city's records and
// slides a window of windowLength days over each city's series.
//
// A city contributes windows only when it has strictly more records than
// windowLength; shorter series are skipped with a warning. An error is
// returned when no city is long enough to contribute a single window.
func BuildDataset(seriesByCity map[string][]forecast_entity.DailyRecord, windowLength int) (*Dataset, error) {
	if windowLength <= 0 {
		return nil, exception.Newf(moduleName, "window length must be positive, got %d", windowLength)
	}

	cities := make([]string, 0, len(seriesByCity))
	for city := range seriesByCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	scalers, err := fitPooledScalers(cities, seriesByCity)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Scalers: scalers, WindowLength: windowLength}
	for _, city := range cities {
		series := seriesByCity[city]
		if len(series) <= windowLength {
			logger.Warnf("City '%s' has %d daily records, need more than %d for one window. Skipping.",
				city, len(series), windowLength)
			continue
		}
		for i := 0; i+windowLength < len(series); i++ {
			inputs := make([][]float64, windowLength)
			for j := 0; j < windowLength; j++ {
				inputs[j] = scalers.ScaleFeatures(series[i+j].FeatureVector())
			}
			ds.Windows = append(ds.Windows, Window{
				CityName: city,
				Inputs:   inputs,
				Target:   scalers.ScaleTargets(series[i+windowLength].TargetVector()),
			})
		}
	}

	if len(ds.Windows) == 0 {
		return nil, exception.Newf(moduleName,
			"no city has more than %d daily records, cannot build any training window", windowLength)
	}
	return ds, nil
}

// fitPooledScalers fits one scaler per feature column over the records of
// every city combined.
func fitPooledScalers(cities []string, seriesByCity map[string][]forecast_entity.DailyRecord) (Scalers, error) {
	var scalers Scalers

	total := 0
	for _, city := range cities {
		total += len(seriesByCity[city])
	}
	if total == 0 {
		return scalers, exception.New(moduleName, "no daily records available to fit scalers", nil, false)
	}

	columns := make([][]float64, NumFeatures)
	for i := range columns {
		columns[i] = make([]float64, 0, total)
	}
	for _, city := range cities {
		for _, record := range seriesByCity[city] {
			for i, v := range record.FeatureVector() {
				columns[i] = append(columns[i], v)
			}
		}
	}

	for i := range scalers.Features {
		scalers.Features[i] = FitScaler(columns[i])
	}
	return scalers, nil
}

// Split divides the windows chronologically: the first trainSplit fraction
// trains the model and the remainder validates it.
func (ds *Dataset) Split(trainSplit float64) (train, validation []Window) {
	if trainSplit <= 0 || trainSplit > 1 {
		trainSplit = 0.8
	}
	cut := int(float64(len(ds.Windows)) * trainSplit)
	if cut == 0 {
		cut = len(ds.Windows)
	}
	return ds.Windows[:cut], ds.Windows[cut:]
}
