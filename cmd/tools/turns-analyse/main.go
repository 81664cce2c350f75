// Package main provides an offline analysis tool for recorded pose
// sessions. It runs the maneuver detection engine over a pose log and
// reports per-turn score breakdowns, with optional exports to SQLite,
// PNG signal traces, an HTML report, and JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/wavewatch-data/maneuver.report/internal/config"
	"github.com/wavewatch-data/maneuver.report/internal/poselog"
	"github.com/wavewatch-data/maneuver.report/internal/storage/sqlite"
	"github.com/wavewatch-data/maneuver.report/internal/turns"
	"github.com/wavewatch-data/maneuver.report/internal/turns/monitor"
	"github.com/wavewatch-data/maneuver.report/internal/version"
)

// Config holds the tool configuration.
type Config struct {
	LogFile    string
	TuningFile string
	DBPath     string
	PlotDir    string
	ReportFile string
	OutputJSON string
	Verbose    bool
	Version    bool
}

// AnalysisResult is the JSON-exportable outcome of one session run.
type AnalysisResult struct {
	LogFile          string             `json:"log_file"`
	SessionID        string             `json:"session_id"`
	Source           string             `json:"source"`
	TotalFrames      int                `json:"total_frames"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
	FinalState       string             `json:"final_state"`
	Turns            []turns.TurnResult `json:"turns"`
}

func main() {
	cfg := parseFlags()

	if cfg.Version {
		fmt.Printf("turns-analyse %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if cfg.LogFile == "" {
		log.Fatal("pose log file is required (-log)")
	}
	if _, err := os.Stat(cfg.LogFile); os.IsNotExist(err) {
		log.Fatalf("pose log not found: %s", cfg.LogFile)
	}

	result, plotter, err := runAnalysis(cfg)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	printResults(result)

	if cfg.OutputJSON != "" {
		if err := exportJSON(result, cfg.OutputJSON); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Results exported to: %s", cfg.OutputJSON)
		}
	}

	if cfg.DBPath != "" {
		if err := persistToDatabase(cfg.DBPath, result); err != nil {
			log.Printf("Warning: failed to persist to database: %v", err)
		} else {
			log.Printf("Results persisted to: %s", cfg.DBPath)
		}
	}

	if cfg.PlotDir != "" {
		count, err := plotter.GeneratePlots()
		if err != nil {
			log.Printf("Warning: failed to generate plots: %v", err)
		} else {
			log.Printf("Generated %d plots in: %s", count, plotter.OutputDir())
		}
	}

	if cfg.ReportFile != "" {
		if err := exportReport(cfg.ReportFile, result, plotter.Samples()); err != nil {
			log.Printf("Warning: failed to write report: %v", err)
		} else {
			log.Printf("Report written to: %s", cfg.ReportFile)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.LogFile, "log", "", "Path to pose log file to analyse")
	flag.StringVar(&cfg.TuningFile, "config", "", "Path to tuning config JSON (defaults to built-in tuning)")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database path for result export")
	flag.StringVar(&cfg.PlotDir, "plot", "", "Output directory for PNG signal traces")
	flag.StringVar(&cfg.ReportFile, "report", "", "Output path for HTML session report")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Output path for JSON results")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&cfg.Version, "version", false, "Print version and exit")

	flag.Parse()

	return cfg
}

func loadEngineConfig(cfg Config) (turns.Config, error) {
	if cfg.TuningFile == "" {
		return turns.DefaultConfig(), nil
	}
	tuning, err := config.LoadTuningConfig(cfg.TuningFile)
	if err != nil {
		return turns.Config{}, fmt.Errorf("load tuning config: %w", err)
	}
	return turns.ConfigFromTuning(tuning), nil
}

func runAnalysis(cfg Config) (*AnalysisResult, *monitor.TracePlotter, error) {
	engineCfg, err := loadEngineConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	l, err := poselog.ReadFile(cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read pose log: %w", err)
	}
	log.Printf("Loaded %s: session=%s frames=%d", cfg.LogFile, l.Session.SessionID, len(l.Frames))

	// The plotter records traces whenever plots or a report are wanted.
	plotter := monitor.NewTracePlotter()
	if cfg.PlotDir != "" || cfg.ReportFile != "" {
		dir := cfg.PlotDir
		if dir == "" {
			dir = monitor.MakePlotOutputDir(os.TempDir(), cfg.LogFile)
		}
		if err := plotter.Start(dir); err != nil {
			return nil, nil, fmt.Errorf("start trace plotter: %w", err)
		}
	}

	analyzer := turns.NewAnalyzer(engineCfg)
	startTime := time.Now()

	for _, frame := range l.Frames {
		result := analyzer.ProcessFrame(frame.Pose())

		knee, torso, rot := analyzer.Signals()
		plotter.Sample(analyzer.FramesProcessed(), knee, torso, rot, analyzer.State())

		if result != nil && cfg.Verbose {
			log.Printf("Turn %s completed at frame %d: bottom=%d top=%d",
				result.ID, result.CompletedFrame, result.Bottom.Score, result.Top.Score)
		}
	}
	plotter.Stop()

	processingTime := time.Since(startTime)

	return &AnalysisResult{
		LogFile:          cfg.LogFile,
		SessionID:        l.Session.SessionID,
		Source:           l.Session.Source,
		TotalFrames:      analyzer.FramesProcessed(),
		ProcessingTimeMs: processingTime.Milliseconds(),
		FinalState:       analyzer.State(),
		Turns:            analyzer.Results(),
	}, plotter, nil
}

func printResults(result *AnalysisResult) {
	fmt.Println("\n=== Session Analysis Results ===")
	fmt.Printf("Pose Log: %s\n", result.LogFile)
	fmt.Printf("Session: %s (%s)\n", result.SessionID, result.Source)
	fmt.Printf("Frames: %d\n", result.TotalFrames)
	fmt.Printf("Processing Time: %dms\n", result.ProcessingTimeMs)
	fmt.Printf("Turns Detected: %d\n", len(result.Turns))

	for i, turn := range result.Turns {
		fmt.Printf("\n--- Turn %d (%s) ---\n", i+1, turn.ID)
		fmt.Printf("Completed at frame: %d\n", turn.CompletedFrame)
		fmt.Printf("Bottom turn: %d/%d (%d frames)\n",
			turn.Bottom.Score, turns.BottomScoreCeiling, turn.Bottom.Frames)
		printDetail(turn.Bottom.Detail)
		fmt.Printf("  snapshot: knee=%.1f torso=%.1f rot=%.1f\n",
			turn.Bottom.Snapshot.Knee, turn.Bottom.Snapshot.Torso, turn.Bottom.Snapshot.Rotation)
		fmt.Printf("Top turn: %d/%d (%d frames)\n",
			turn.Top.Score, turns.TopScoreCeiling, turn.Top.Frames)
		printDetail(turn.Top.Detail)
		fmt.Printf("Total: %d\n", turn.Bottom.Score+turn.Top.Score)
	}
}

func printDetail(detail turns.ScoreDetail) {
	criteria := make([]string, 0, len(detail))
	for name := range detail {
		criteria = append(criteria, name)
	}
	sort.Strings(criteria)
	for _, name := range criteria {
		cs := detail[name]
		fmt.Printf("  %-14s %d pts (raw %.2f)\n", name, cs.Points, cs.Raw)
	}
}

func persistToDatabase(dbPath string, result *AnalysisResult) error {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqlite.NewTurnStore(db)
	session := &sqlite.SessionRecord{
		SessionID:  result.SessionID,
		Source:     result.Source,
		FrameCount: result.TotalFrames,
	}
	if err := store.SaveResults(session, result.Turns); err != nil {
		return err
	}

	summary, err := store.Summary(session.SessionID)
	if err != nil {
		return err
	}
	fmt.Printf("\n--- Session Summary ---\n")
	fmt.Printf("Turns: %d\n", summary.TurnCount)
	fmt.Printf("Mean Bottom Score: %.2f\n", summary.MeanBottomScore)
	fmt.Printf("Mean Top Score: %.2f\n", summary.MeanTopScore)
	fmt.Printf("Best Total: %d\n", summary.BestTotalScore)
	return nil
}

func exportReport(path string, result *AnalysisResult, samples []monitor.TraceSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return monitor.RenderSessionReport(f, result.Source, samples, result.Turns)
}

func exportJSON(result *AnalysisResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
