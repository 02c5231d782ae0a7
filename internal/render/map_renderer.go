// Package render draws the training history chart and the forecast contour
// maps, and uploads them through the artifact storage connection.
package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	storageadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
	"github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/domain/model"
	"github.com/marina21-cs/weteweta.github.io/internal/ml"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const ModuleMapRenderer = "MapRenderer"

// MinCitiesForMap is the minimum number of cities with known coordinates
// needed for grid interpolation.
const MinCitiesForMap = 3

// gridMargin widens the interpolation grid beyond the city bounding box, in
// degrees.
const gridMargin = 0.5

// MapRenderer renders PNG artifacts and writes them through a storage
// connection. Rendering failures are reported as skippable: a missing map
// never fails the run.
type MapRenderer struct {
	conn storageadapter.Connection
	cfg  config.RenderConfig
}

// NewMapRenderer creates a MapRenderer writing under cfg.OutputBaseDir.
func NewMapRenderer(conn storageadapter.Connection, cfg config.RenderConfig) *MapRenderer {
	return &MapRenderer{conn: conn, cfg: cfg}
}

// RenderTrainingHistory plots the per-epoch loss curves as
// training_history.png.
func (r *MapRenderer) RenderTrainingHistory(ctx context.Context, result *ml.TrainResult) error {
	if result == nil || len(result.TrainLoss) == 0 {
		return exception.New(ModuleMapRenderer, "no training history to render", nil, true)
	}

	p := plot.New()
	p.Title.Text = "Training history"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss (MSE)"

	trainLine, err := plotter.NewLine(lossPoints(result.TrainLoss))
	if err != nil {
		return exception.New(ModuleMapRenderer, "failed to plot training loss", err, true)
	}
	p.Add(trainLine)
	p.Legend.Add("train", trainLine)

	if len(result.ValidationLoss) > 0 {
		valLine, err := plotter.NewLine(lossPoints(result.ValidationLoss))
		if err != nil {
			return exception.New(ModuleMapRenderer, "failed to plot validation loss", err, true)
		}
		valLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(valLine)
		p.Legend.Add("validation", valLine)
	}
	p.Legend.Top = true

	return r.upload(ctx, p, "training_history.png", 8*vg.Inch, 5*vg.Inch)
}

// BuildCityAverages joins each trajectory's mean forecast with the static
// coordinate table. Unknown cities get (0, 0) and a warning; cities whose
// trajectories hold no points are dropped.
func BuildCityAverages(trajectories []model.Trajectory) []model.CityAverage {
	averages := make([]model.CityAverage, 0, len(trajectories))
	for _, traj := range trajectories {
		temperature, rainfall, ok := traj.Average()
		if !ok {
			logger.Warnf("City '%s' has no forecast points; excluded from maps.", traj.CityName)
			continue
		}
		coords, found := model.LookupCoordinates(traj.CityName)
		if !found {
			logger.Warnf("No coordinates for city '%s'; defaulting to (0, 0).", traj.CityName)
		}
		averages = append(averages, model.CityAverage{
			CityName:    traj.CityName,
			Latitude:    coords.Latitude,
			Longitude:   coords.Longitude,
			Temperature: temperature,
			Rainfall:    rainfall,
		})
	}
	return averages
}

// RenderAverageMaps renders temp_map.png and rain_map.png from the per-city
// forecast averages.
func (r *MapRenderer) RenderAverageMaps(ctx context.Context, averages []model.CityAverage) error {
	tempPoints := surfacePoints(averages, func(a model.CityAverage) float64 { return a.Temperature })
	rainPoints := surfacePoints(averages, func(a model.CityAverage) float64 { return a.Rainfall })

	if err := r.renderSurface(ctx, "Mean forecast temperature (°C)", "temp_map.png", tempPoints); err != nil {
		return err
	}
	return r.renderSurface(ctx, "Mean forecast rainfall (mm)", "rain_map.png", rainPoints)
}

// RenderDailyTemperatureMaps renders temp_map_<date>.png for the first
// cfg.DailyMaps forecast dates present in the trajectories. A date that
// cannot be rendered is logged and skipped; the remaining dates are still
// attempted.
func (r *MapRenderer) RenderDailyTemperatureMaps(ctx context.Context, trajectories []model.Trajectory) error {
	dates := forecastDates(trajectories, r.cfg.DailyMaps)
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return exception.New(ModuleMapRenderer, "map rendering canceled", err, false)
		}
		var pts []surfacePoint
		for _, traj := range trajectories {
			point, ok := traj.PointOn(date)
			if !ok {
				continue
			}
			coords, found := model.LookupCoordinates(traj.CityName)
			if !found {
				continue
			}
			pts = append(pts, surfacePoint{
				lon:   coords.Longitude,
				lat:   coords.Latitude,
				value: point.Temperature,
			})
		}

		day := date.Format("2006-01-02")
		name := fmt.Sprintf("temp_map_%s.png", day)
		title := fmt.Sprintf("Forecast temperature %s (°C)", day)
		if err := r.renderSurface(ctx, title, name, pts); err != nil {
			logger.Warnf("Skipping daily map '%s': %v", name, err)
			continue
		}
	}
	return nil
}

// surfacePoint is one city sample on the interpolation grid.
type surfacePoint struct {
	lon, lat, value float64
}

// surfacePoints converts city averages into samples, dropping cities whose
// coordinates defaulted to (0, 0).
func surfacePoints(averages []model.CityAverage, selector func(model.CityAverage) float64) []surfacePoint {
	pts := make([]surfacePoint, 0, len(averages))
	for _, a := range averages {
		if a.Latitude == 0 && a.Longitude == 0 {
			continue
		}
		pts = append(pts, surfacePoint{lon: a.Longitude, lat: a.Latitude, value: selector(a)})
	}
	return pts
}

// forecastDates collects the distinct dates across all trajectories, sorted
// ascending, capped at limit.
func forecastDates(trajectories []model.Trajectory, limit int) []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, traj := range trajectories {
		for _, p := range traj.Points {
			if _, ok := seen[p.Date]; !ok {
				seen[p.Date] = struct{}{}
				dates = append(dates, p.Date)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}
	return dates
}

// renderSurface interpolates the samples onto a regular grid, draws a heat
// map with the city positions overlaid, and uploads the image.
func (r *MapRenderer) renderSurface(ctx context.Context, title, objectName string, pts []surfacePoint) error {
	if len(pts) < MinCitiesForMap {
		return exception.New(ModuleMapRenderer,
			fmt.Sprintf("cannot render '%s': need at least %d cities with coordinates, have %d",
				objectName, MinCitiesForMap, len(pts)), nil, true)
	}

	gridSize := r.cfg.GridSize
	if gridSize <= 0 {
		gridSize = 60
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "longitude"
	p.Y.Label.Text = "latitude"

	grid := interpolateGrid(pts, gridSize)
	heatMap := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	p.Add(heatMap)

	cities := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		cities[i].X = pt.lon
		cities[i].Y = pt.lat
	}
	scatter, err := plotter.NewScatter(cities)
	if err != nil {
		return exception.New(ModuleMapRenderer,
			fmt.Sprintf("failed to plot city markers for '%s'", objectName), err, true)
	}
	p.Add(scatter)

	return r.upload(ctx, p, objectName, 7*vg.Inch, 9*vg.Inch)
}

// upload renders the plot as PNG and writes it through the storage
// connection under the configured base directory.
func (r *MapRenderer) upload(ctx context.Context, p *plot.Plot, objectName string, width, height vg.Length) error {
	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return exception.New(ModuleMapRenderer,
			fmt.Sprintf("failed to render '%s'", objectName), err, true)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return exception.New(ModuleMapRenderer,
			fmt.Sprintf("failed to encode '%s'", objectName), err, true)
	}

	target := path.Join(r.cfg.OutputBaseDir, objectName)
	if err := r.conn.Upload(ctx, target, &buf, "image/png"); err != nil {
		return exception.New(ModuleMapRenderer,
			fmt.Sprintf("failed to upload '%s'", target), err, true)
	}
	logger.Infof("Rendered '%s'.", target)
	return nil
}

// lossPoints maps a loss history onto 1-based epoch coordinates.
func lossPoints(losses []float64) plotter.XYs {
	pts := make(plotter.XYs, len(losses))
	for i, l := range losses {
		pts[i].X = float64(i + 1)
		pts[i].Y = l
	}
	return pts
}

// surfaceGrid is a regular lon/lat grid of interpolated values implementing
// plotter.GridXYZ.
type surfaceGrid struct {
	xs, ys []float64
	zs     []float64
}

func (g *surfaceGrid) Dims() (c, r int)   { return len(g.xs), len(g.ys) }
func (g *surfaceGrid) Z(c, r int) float64 { return g.zs[r*len(g.xs)+c] }
func (g *surfaceGrid) X(c int) float64    { return g.xs[c] }
func (g *surfaceGrid) Y(r int) float64    { return g.ys[r] }

// interpolateGrid fills an n×n grid over the samples' bounding box using
// inverse-distance weighting.
func interpolateGrid(pts []surfacePoint, n int) *surfaceGrid {
	minLon, maxLon := pts[0].lon, pts[0].lon
	minLat, maxLat := pts[0].lat, pts[0].lat
	for _, p := range pts[1:] {
		minLon = math.Min(minLon, p.lon)
		maxLon = math.Max(maxLon, p.lon)
		minLat = math.Min(minLat, p.lat)
		maxLat = math.Max(maxLat, p.lat)
	}
	minLon -= gridMargin
	maxLon += gridMargin
	minLat -= gridMargin
	maxLat += gridMargin

	grid := &surfaceGrid{
		xs: linspace(minLon, maxLon, n),
		ys: linspace(minLat, maxLat, n),
		zs: make([]float64, n*n),
	}
	for row, lat := range grid.ys {
		for col, lon := range grid.xs {
			grid.zs[row*n+col] = idw(pts, lon, lat)
		}
	}
	return grid
}

// idw computes the inverse-distance-weighted value at (lon, lat). A grid
// node that coincides with a sample takes the sample's value.
func idw(pts []surfacePoint, lon, lat float64) float64 {
	var weightSum, valueSum float64
	for _, p := range pts {
		dLon := lon - p.lon
		dLat := lat - p.lat
		d2 := dLon*dLon + dLat*dLat
		if d2 < 1e-12 {
			return p.value
		}
		w := 1 / d2
		weightSum += w
		valueSum += w * p.value
	}
	return valueSum / weightSum
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
