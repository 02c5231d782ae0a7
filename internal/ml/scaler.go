// Package ml implements the day-ahead weather regressor: min-max feature
// scaling, sliding-window dataset construction and a stacked LSTM trained
// with Adam and early stopping.
package ml

import (
	"gonum.org/v1/gonum/floats"
)

// Feature column indexes, in canonical order. The first NumTargets columns
// double as the prediction targets.
const (
	FeatureTemperature = 0
	FeatureRainfall    = 1
	FeatureWindSpeed   = 2
	FeatureCloudCover  = 3
	FeatureVisibility  = 4

	NumFeatures = 5
	NumTargets  = 2
)

// MinMaxScaler maps values from [Min, Max] to [0, 1].
type MinMaxScaler struct {
	Min float64
	Max float64
}

// FitScaler fits a MinMaxScaler to the observed values.
func FitScaler(values []float64) MinMaxScaler {
	if len(values) == 0 {
		return MinMaxScaler{}
	}
	return MinMaxScaler{
		Min: floats.Min(values),
		Max: floats.Max(values),
	}
}

// Scale maps v into [0, 1]. A zero-range scaler maps every value to 0.
func (s MinMaxScaler) Scale(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// Unscale maps a value from [0, 1] back to the original range. A zero-range
// scaler returns Min.
func (s MinMaxScaler) Unscale(v float64) float64 {
	if s.Max == s.Min {
		return s.Min
	}
	return v*(s.Max-s.Min) + s.Min
}

// Scalers holds one scaler per feature column, fit on the data of every
// city pooled together so all cities share one value range. The target
// scalers are the temperature and rainfall feature scalers.
type Scalers struct {
	Features [NumFeatures]MinMaxScaler
}

// ScaleFeatures scales a feature vector in place order.
func (s Scalers) ScaleFeatures(features []float64) []float64 {
	scaled := make([]float64, len(features))
	for i, v := range features {
		scaled[i] = s.Features[i].Scale(v)
	}
	return scaled
}

// ScaleTargets scales a target vector (temperature, rainfall).
func (s Scalers) ScaleTargets(targets []float64) []float64 {
	scaled := make([]float64, len(targets))
	for i, v := range targets {
		scaled[i] = s.Features[i].Scale(v)
	}
	return scaled
}

// UnscaleTargets maps scaled predictions back to physical units.
func (s Scalers) UnscaleTargets(targets []float64) []float64 {
	unscaled := make([]float64, len(targets))
	for i, v := range targets {
		unscaled[i] = s.Features[i].Unscale(v)
	}
	return unscaled
}
