// Package monitor provides offline visualisation of analysed sessions:
// PNG traces of the smoothed angle signals and an HTML session report.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TraceSample is one frame's smoothed signal values plus the detection
// state the frame was consumed in.
type TraceSample struct {
	Frame    int
	Knee     float64
	Torso    float64
	Rotation float64
	State    string
}

// TracePlotter records the smoothed signal triple over a session and
// renders per-signal PNG traces after the run.
type TracePlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	samples []TraceSample
}

// NewTracePlotter creates a disabled plotter. Call Start to begin
// recording.
func NewTracePlotter() *TracePlotter {
	return &TracePlotter{}
}

// Start initialises the plotter for a new session, creating the output
// directory and discarding any previous samples.
func (tp *TracePlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tp.outputDir = outputDir
	tp.enabled = true
	tp.samples = nil
	return nil
}

// Stop disables sampling. Call GeneratePlots to produce output files.
func (tp *TracePlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (tp *TracePlotter) IsEnabled() bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.enabled
}

// Sample records one frame's smoothed values. Call once per frame in
// arrival order.
func (tp *TracePlotter) Sample(frame int, knee, torso, rot float64, state string) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if !tp.enabled {
		return
	}
	tp.samples = append(tp.samples, TraceSample{
		Frame: frame, Knee: knee, Torso: torso, Rotation: rot, State: state,
	})
}

// Samples returns a copy of the recorded samples in frame order.
func (tp *TracePlotter) Samples() []TraceSample {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	out := make([]TraceSample, len(tp.samples))
	copy(out, tp.samples)
	return out
}

// SampleCount returns the number of samples collected.
func (tp *TracePlotter) SampleCount() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.samples)
}

// OutputDir returns the current output directory for plots.
func (tp *TracePlotter) OutputDir() string {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.outputDir
}

// traceSpec names one rendered signal.
type traceSpec struct {
	file  string
	title string
	yname string
	value func(TraceSample) float64
	color color.Color
}

// GeneratePlots creates one PNG per signal showing the smoothed value
// over frames. Returns the number of plots generated.
func (tp *TracePlotter) GeneratePlots() (int, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if len(tp.samples) == 0 {
		return 0, nil
	}

	specs := []traceSpec{
		{
			file:  "trace_knee.png",
			title: "Knee Flexion (smoothed)",
			yname: "Angle (deg)",
			value: func(s TraceSample) float64 { return s.Knee },
			color: color.RGBA{R: 31, G: 119, B: 180, A: 255},
		},
		{
			file:  "trace_torso.png",
			title: "Torso Lean (smoothed)",
			yname: "Angle (deg)",
			value: func(s TraceSample) float64 { return s.Torso },
			color: color.RGBA{R: 255, G: 127, B: 14, A: 255},
		},
		{
			file:  "trace_rotation.png",
			title: "Rotation Differential (smoothed)",
			yname: "Angle (deg)",
			value: func(s TraceSample) float64 { return s.Rotation },
			color: color.RGBA{R: 44, G: 160, B: 44, A: 255},
		},
	}

	count := 0
	for _, spec := range specs {
		if err := tp.generateTracePlot(spec); err != nil {
			return count, fmt.Errorf("%s: %w", spec.file, err)
		}
		count++
	}
	return count, nil
}

// generateTracePlot renders one signal's trace.
func (tp *TracePlotter) generateTracePlot(spec traceSpec) error {
	p := plot.New()
	p.Title.Text = spec.title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = spec.yname

	pts := make(plotter.XYs, 0, len(tp.samples))
	for _, s := range tp.samples {
		pts = append(pts, plotter.XY{X: float64(s.Frame), Y: spec.value(s)})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = spec.color
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("smoothed", line)
	p.Legend.Top = true

	out := filepath.Join(tp.outputDir, spec.file)
	if err := p.Save(14*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir creates a timestamped output directory path for a
// session's plots: plots/<log_basename>/<timestamp>.
func MakePlotOutputDir(baseDir, logFile string) string {
	ts := FormatTimestamp(time.Now())
	if logFile != "" {
		base := filepath.Base(logFile)
		ext := filepath.Ext(base)
		name := base[:len(base)-len(ext)]
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "session_"+ts)
}
