package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/wavewatch-data/maneuver.report/internal/turns"
)

// RenderSessionReport writes an HTML report for one analysed session:
// a line chart of the three smoothed signals over frames and a bar
// chart of per-turn scores.
func RenderSessionReport(w io.Writer, source string, samples []TraceSample, results []turns.TurnResult) error {
	page := components.NewPage()

	if len(samples) > 0 {
		page.AddCharts(signalChart(source, samples))
	}
	if len(results) > 0 {
		page.AddCharts(scoreChart(results))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// signalChart builds the smoothed-signal line chart.
func signalChart(source string, samples []TraceSample) *charts.Line {
	frames := make([]string, len(samples))
	knee := make([]opts.LineData, len(samples))
	torso := make([]opts.LineData, len(samples))
	rot := make([]opts.LineData, len(samples))
	for i, s := range samples {
		frames[i] = fmt.Sprintf("%d", s.Frame)
		knee[i] = opts.LineData{Value: s.Knee}
		torso[i] = opts.LineData{Value: s.Torso}
		rot[i] = opts.LineData{Value: s.Rotation}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Session Report", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Smoothed Angle Signals",
			Subtitle: fmt.Sprintf("source=%s frames=%d", source, len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Angle (deg)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(frames).
		AddSeries("knee flexion", knee).
		AddSeries("torso lean", torso).
		AddSeries("rotation", rot)
	return line
}

// scoreChart builds the per-turn score bar chart.
func scoreChart(results []turns.TurnResult) *charts.Bar {
	labels := make([]string, len(results))
	bottoms := make([]opts.BarData, len(results))
	tops := make([]opts.BarData, len(results))
	for i, r := range results {
		labels[i] = fmt.Sprintf("turn %d (frame %d)", i+1, r.CompletedFrame)
		bottoms[i] = opts.BarData{Value: r.Bottom.Score}
		tops[i] = opts.BarData{Value: r.Top.Score}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Turn Scores",
			Subtitle: fmt.Sprintf("turns=%d", len(results)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("bottom turn", bottoms,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("top turn", tops,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}
