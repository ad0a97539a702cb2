// Package chart renders speed profiles (PNG) and speed-band pages (HTML)
// from report rows.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/pkg/core"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// File names written next to the CSV reports.
const (
	SpeedProfileFile = "speed_profile.png"
	BandsPageFile    = "speed_bands.html"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no rows to chart")

type seriesKey struct {
	class core.EntityClass
	id    core.TrackID
}

// SpeedProfile draws one speed-over-frame line per entity and saves it as a PNG.
func SpeedProfile(rows []report.FrameRow, title, path string) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	series := make(map[seriesKey]plotter.XYs)
	for _, r := range rows {
		k := seriesKey{class: r.Class, id: r.TrackID}
		series[k] = append(series[k], plotter.XY{X: float64(r.Frame), Y: r.SpeedKmh})
	}

	keys := make([]seriesKey, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].class != keys[j].class {
			return keys[i].class < keys[j].class
		}
		return keys[i].id < keys[j].id
	})

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Speed (km/h)"

	for i, k := range keys {
		pts := series[k]
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("line %s %d: %w", k.class, k.id, err)
		}
		line.Width = vg.Points(1)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s %d", k.class, k.id), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// BandsPage renders a stacked bar per track id of its distance in each speed band.
func BandsPage(w io.Writer, rows []bands.Row, title string) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	x := make([]string, len(rows))
	data := map[bands.Band][]opts.BarData{}
	for i, r := range rows {
		x[i] = strconv.Itoa(int(r.TrackID))
		for _, b := range bands.All {
			data[b] = append(data[b], opts.BarData{Value: r.Distance(b)})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("tracks=%d", len(rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Track", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Distance (m)", NameLocation: "middle", NameGap: 40}),
	)
	bar.SetXAxis(x)
	for _, b := range bands.All {
		bar.AddSeries(string(b), data[b], charts.WithBarChartOpts(opts.BarChart{Stack: "distance"}))
	}

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}

// WriteBandsPage renders BandsPage into path.
func WriteBandsPage(path string, rows []bands.Row, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := BandsPage(f, rows, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
