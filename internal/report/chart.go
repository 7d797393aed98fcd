package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteHTML renders h as a self-contained go-echarts bar chart with the
// target as a mark line.
func WriteHTML(w io.Writer, h History) error {
	bars := make([]opts.BarData, len(h.Days))
	for i, d := range h.Days {
		bars[i] = opts.BarData{Value: int(d.Summary.Consumed)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "wheyout history", Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Daily calories",
			Subtitle: fmt.Sprintf("target %d kcal, mean %d kcal", int(h.Target), int(h.Mean)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kcal"}),
	)
	bar.SetXAxis(h.Labels()).
		AddSeries("consumed", bars,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
			charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "target", YAxis: h.Target}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// SavePNG plots h as a bar chart with a target line and writes it to path.
// The image format follows the file extension.
func SavePNG(path string, h History) error {
	values := make(plotter.Values, len(h.Days))
	for i, d := range h.Days {
		values[i] = d.Summary.Consumed
	}

	p := plot.New()
	p.Title.Text = "Daily calories"
	p.Y.Label.Text = "kcal"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(h.Labels()...)

	target, err := plotter.NewLine(plotter.XYs{
		{X: -0.5, Y: h.Target},
		{X: float64(len(h.Days)) - 0.5, Y: h.Target},
	})
	if err != nil {
		return fmt.Errorf("failed to build target line: %w", err)
	}
	target.Width = vg.Points(1)
	target.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(target)
	p.Legend.Add("target", target)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
