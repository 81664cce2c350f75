// Package poselog provides reading and writing of recorded pose sessions.
//
// A pose log is a single JSON document holding session metadata plus the
// ordered per-frame joint observations produced by an upstream pose
// estimator. It is the interchange format between capture pipelines and
// the analysis tooling under cmd/tools.
package poselog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wavewatch-data/maneuver.report/internal/pose"
)

// FileExtension is the extension for pose log files.
const FileExtension = ".poselog.json"

// Version is the current log format version.
const Version = "1.0"

// maxLogSize bounds the log file size to catch accidentally-pointed-at
// video files or corrupt captures before decoding.
const maxLogSize = 256 << 20

// Session holds the metadata of one recorded ride.
type Session struct {
	SessionID    string  `json:"session_id"`
	Source       string  `json:"source"`
	RecordedAtNs int64   `json:"recorded_at_ns"`
	FPS          float64 `json:"fps"`
	Notes        string  `json:"notes,omitempty"`
}

// Frame is one frame's joint observations. Joints are keyed by the
// canonical joint names from the pose package; unknown names are carried
// through untouched so logs survive estimator upgrades.
type Frame struct {
	Index       int          `json:"index"`
	TimestampMs int64        `json:"timestamp_ms"`
	Joints      []pose.Joint `json:"joints"`
}

// Pose converts the frame's joint list into a FramePose for analysis.
// Later duplicates of a joint name win, matching estimator output order.
func (f *Frame) Pose() pose.FramePose {
	fp := make(pose.FramePose, len(f.Joints))
	for _, j := range f.Joints {
		fp[j.Name] = j
	}
	return fp
}

// Log is a complete pose session: metadata plus ordered frames.
type Log struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Frames  []Frame `json:"frames"`
}

// NewLog creates an empty log with a fresh session ID and the current
// format version.
func NewLog(source string, fps float64) *Log {
	return &Log{
		Version: Version,
		Session: Session{
			SessionID:    fmt.Sprintf("ses_%s", uuid.NewString()),
			Source:       source,
			RecordedAtNs: time.Now().UnixNano(),
			FPS:          fps,
		},
	}
}

// Append adds a frame of joints to the log, assigning the next index and
// a timestamp derived from the session frame rate.
func (l *Log) Append(joints []pose.Joint) {
	idx := len(l.Frames)
	var ts int64
	if l.Session.FPS > 0 {
		ts = int64(float64(idx) * 1000 / l.Session.FPS)
	}
	l.Frames = append(l.Frames, Frame{Index: idx, TimestampMs: ts, Joints: joints})
}

// Validate checks the structural invariants of a decoded log: a known
// version, a session ID, and strictly increasing frame indices.
func (l *Log) Validate() error {
	if l.Version == "" {
		return fmt.Errorf("pose log missing version")
	}
	if l.Session.SessionID == "" {
		return fmt.Errorf("pose log missing session_id")
	}
	for i, f := range l.Frames {
		if i > 0 && f.Index <= l.Frames[i-1].Index {
			return fmt.Errorf("frame indices out of order at position %d: %d after %d",
				i, f.Index, l.Frames[i-1].Index)
		}
	}
	return nil
}

// Read decodes and validates a pose log from r.
func Read(r io.Reader) (*Log, error) {
	var l Log
	dec := json.NewDecoder(r)
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("decode pose log: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// ReadFile loads a pose log from disk. The file must carry the pose log
// extension and stay under the size bound.
func ReadFile(path string) (*Log, error) {
	if !strings.HasSuffix(path, FileExtension) && !strings.HasSuffix(path, ".json") {
		return nil, fmt.Errorf("pose log file must be JSON: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat pose log: %w", err)
	}
	if info.Size() > maxLogSize {
		return nil, fmt.Errorf("pose log too large: %d bytes", info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pose log: %w", err)
	}
	defer f.Close()

	l, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return l, nil
}

// Write encodes the log to w after validating it.
func Write(w io.Writer, l *Log) error {
	if err := l.Validate(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode pose log: %w", err)
	}
	return nil
}

// WriteFile writes the log to disk, creating parent directories as
// needed.
func WriteFile(path string, l *Log) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pose log: %w", err)
	}
	defer f.Close()

	if err := Write(f, l); err != nil {
		return err
	}
	return f.Close()
}
