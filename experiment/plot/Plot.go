// Package plot draws learning curves
package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Axis labels of learning curves
const (
	XLabel = "Episode"
	YLabel = "Episode Reward"
)

// SavePNG draws values against their index and saves the figure as a
// PNG image at filename
func SavePNG(values []float64, title, filename string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel

	pts := make(plotter.XYs, len(values))
	for i := range values {
		pts[i].X = float64(i)
		pts[i].Y = values[i]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("savePNG: could not create line: %v", err)
	}
	p.Add(line)

	if err := mkdir(filename); err != nil {
		return fmt.Errorf("savePNG: %v", err)
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, filename); err != nil {
		return fmt.Errorf("savePNG: could not save plot: %v", err)
	}
	return nil
}

// SaveHTML draws values against their index as an interactive chart
// and saves it as an HTML page at filename
func SaveHTML(values []float64, title, filename string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: XLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: YLabel}),
	)

	episodes := make([]string, len(values))
	items := make([]opts.LineData, len(values))
	for i := range values {
		episodes[i] = fmt.Sprintf("%d", i)
		items[i] = opts.LineData{Value: values[i]}
	}
	line.SetXAxis(episodes).AddSeries(title, items)

	if err := mkdir(filename); err != nil {
		return fmt.Errorf("saveHTML: %v", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("saveHTML: could not create file: %v", err)
	}
	defer f.Close()

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(f); err != nil {
		return fmt.Errorf("saveHTML: could not render chart: %v", err)
	}
	return nil
}

// mkdir creates the parent directory of filename
func mkdir(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("could not create directory: %v", err)
	}
	return nil
}
