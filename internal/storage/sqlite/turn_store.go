package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/wavewatch-data/maneuver.report/internal/turns"

	_ "modernc.org/sqlite"
)

// schema is the inline table definition for the export store. The store
// is a one-shot analysis artefact, so no migration lifecycle applies.
const schema = `
	CREATE TABLE IF NOT EXISTS analysed_sessions (
		session_id     TEXT PRIMARY KEY,
		source         TEXT NOT NULL,
		recorded_at_ns INTEGER NOT NULL,
		fps            REAL,
		frame_count    INTEGER,
		created_at     INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_turns (
		turn_id            TEXT PRIMARY KEY,
		session_id         TEXT NOT NULL,
		completed_frame    INTEGER NOT NULL,
		bottom_score       INTEGER NOT NULL,
		top_score          INTEGER NOT NULL,
		bottom_detail_json TEXT,
		top_detail_json    TEXT,
		snapshot_knee      REAL,
		snapshot_torso     REAL,
		snapshot_rot       REAL,
		bottom_frames      INTEGER,
		top_frames         INTEGER,
		created_at         INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES analysed_sessions(session_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_session_turns_session ON session_turns(session_id);
`

// Open opens (or creates) a turn store database at the given path and
// applies the schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection; pin the pool to one
	// so every statement sees the same schema.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// SessionRecord is a persisted analysed session.
type SessionRecord struct {
	SessionID    string  `json:"session_id"`
	Source       string  `json:"source"`
	RecordedAtNs int64   `json:"recorded_at_ns"`
	FPS          float64 `json:"fps"`
	FrameCount   int     `json:"frame_count"`
	CreatedAt    int64   `json:"created_at"`
}

// TurnRecord is a persisted turn result: both halves' scores, the
// serialised per-criterion detail, and the bottom-turn snapshot.
type TurnRecord struct {
	TurnID           string          `json:"turn_id"`
	SessionID        string          `json:"session_id"`
	CompletedFrame   int             `json:"completed_frame"`
	BottomScore      int             `json:"bottom_score"`
	TopScore         int             `json:"top_score"`
	BottomDetailJSON json.RawMessage `json:"bottom_detail_json,omitempty"`
	TopDetailJSON    json.RawMessage `json:"top_detail_json,omitempty"`
	SnapshotKnee     float64         `json:"snapshot_knee"`
	SnapshotTorso    float64         `json:"snapshot_torso"`
	SnapshotRot      float64         `json:"snapshot_rot"`
	BottomFrames     int             `json:"bottom_frames"`
	TopFrames        int             `json:"top_frames"`
	CreatedAt        int64           `json:"created_at"`
}

// RecordFromResult converts an engine turn result into its storage form.
func RecordFromResult(sessionID string, r turns.TurnResult) (*TurnRecord, error) {
	bottomDetail, err := json.Marshal(r.Bottom.Detail)
	if err != nil {
		return nil, fmt.Errorf("marshal bottom detail: %w", err)
	}
	topDetail, err := json.Marshal(r.Top.Detail)
	if err != nil {
		return nil, fmt.Errorf("marshal top detail: %w", err)
	}
	return &TurnRecord{
		TurnID:           r.ID,
		SessionID:        sessionID,
		CompletedFrame:   r.CompletedFrame,
		BottomScore:      r.Bottom.Score,
		TopScore:         r.Top.Score,
		BottomDetailJSON: bottomDetail,
		TopDetailJSON:    topDetail,
		SnapshotKnee:     r.Bottom.Snapshot.Knee,
		SnapshotTorso:    r.Bottom.Snapshot.Torso,
		SnapshotRot:      r.Bottom.Snapshot.Rotation,
		BottomFrames:     r.Bottom.Frames,
		TopFrames:        r.Top.Frames,
	}, nil
}

// SessionSummary aggregates the scores of one session's turns.
type SessionSummary struct {
	SessionID       string  `json:"session_id"`
	TurnCount       int     `json:"turn_count"`
	MeanBottomScore float64 `json:"mean_bottom_score"`
	MeanTopScore    float64 `json:"mean_top_score"`
	MeanTotalScore  float64 `json:"mean_total_score"`
	BestTotalScore  int     `json:"best_total_score"`
}

// TurnStore provides persistence for analysed sessions and turn results.
type TurnStore struct {
	db *sql.DB
}

// NewTurnStore creates a TurnStore backed by the given database.
func NewTurnStore(db *sql.DB) *TurnStore {
	return &TurnStore{db: db}
}

// InsertSession persists a session. If SessionID is empty a UUID is
// generated.
func (s *TurnStore) InsertSession(rec *SessionRecord) error {
	if rec.SessionID == "" {
		rec.SessionID = fmt.Sprintf("ses_%s", uuid.NewString())
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixNano()
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO analysed_sessions (
				session_id, source, recorded_at_ns, fps, frame_count, created_at
			) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.SessionID, rec.Source, rec.RecordedAtNs, rec.FPS, rec.FrameCount, rec.CreatedAt,
		)
		return err
	})
}

// InsertTurn persists a turn record. If TurnID is empty a UUID is
// generated.
func (s *TurnStore) InsertTurn(rec *TurnRecord) error {
	if rec.TurnID == "" {
		rec.TurnID = fmt.Sprintf("trn_%s", uuid.NewString())
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixNano()
	}

	var bottomDetail, topDetail interface{}
	if len(rec.BottomDetailJSON) > 0 {
		bottomDetail = string(rec.BottomDetailJSON)
	}
	if len(rec.TopDetailJSON) > 0 {
		topDetail = string(rec.TopDetailJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO session_turns (
				turn_id, session_id, completed_frame, bottom_score, top_score,
				bottom_detail_json, top_detail_json,
				snapshot_knee, snapshot_torso, snapshot_rot,
				bottom_frames, top_frames, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.TurnID, rec.SessionID, rec.CompletedFrame, rec.BottomScore, rec.TopScore,
			bottomDetail, topDetail,
			rec.SnapshotKnee, rec.SnapshotTorso, rec.SnapshotRot,
			rec.BottomFrames, rec.TopFrames, rec.CreatedAt,
		)
		return err
	})
}

// SaveResults persists a session together with all of its turn results
// in completion order.
func (s *TurnStore) SaveResults(session *SessionRecord, results []turns.TurnResult) error {
	if err := s.InsertSession(session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for _, r := range results {
		rec, err := RecordFromResult(session.SessionID, r)
		if err != nil {
			return err
		}
		if err := s.InsertTurn(rec); err != nil {
			return fmt.Errorf("insert turn %s: %w", rec.TurnID, err)
		}
	}
	return nil
}

// ListBySession returns all turns for a session ordered by completion
// frame.
func (s *TurnStore) ListBySession(sessionID string) ([]*TurnRecord, error) {
	rows, err := s.db.Query(`
		SELECT turn_id, session_id, completed_frame, bottom_score, top_score,
		       bottom_detail_json, top_detail_json,
		       snapshot_knee, snapshot_torso, snapshot_rot,
		       bottom_frames, top_frames, created_at
		FROM session_turns
		WHERE session_id = ?
		ORDER BY completed_frame ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var recs []*TurnRecord
	for rows.Next() {
		rec, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// GetSession returns a session by ID.
func (s *TurnStore) GetSession(sessionID string) (*SessionRecord, error) {
	row := s.db.QueryRow(`
		SELECT session_id, source, recorded_at_ns, fps, frame_count, created_at
		FROM analysed_sessions
		WHERE session_id = ?`, sessionID)

	var rec SessionRecord
	err := row.Scan(&rec.SessionID, &rec.Source, &rec.RecordedAtNs,
		&rec.FPS, &rec.FrameCount, &rec.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &rec, nil
}

// Summary aggregates the session's turn scores. A session with no turns
// yields a zero-valued summary.
func (s *TurnStore) Summary(sessionID string) (*SessionSummary, error) {
	recs, err := s.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummary{SessionID: sessionID, TurnCount: len(recs)}
	if len(recs) == 0 {
		return summary, nil
	}

	bottoms := make([]float64, len(recs))
	tops := make([]float64, len(recs))
	totals := make([]float64, len(recs))
	for i, rec := range recs {
		bottoms[i] = float64(rec.BottomScore)
		tops[i] = float64(rec.TopScore)
		totals[i] = float64(rec.BottomScore + rec.TopScore)
		if best := rec.BottomScore + rec.TopScore; best > summary.BestTotalScore {
			summary.BestTotalScore = best
		}
	}
	summary.MeanBottomScore = stat.Mean(bottoms, nil)
	summary.MeanTopScore = stat.Mean(tops, nil)
	summary.MeanTotalScore = stat.Mean(totals, nil)
	return summary, nil
}

// scanTurn scans a turn row from a sql.Rows cursor.
func scanTurn(rows *sql.Rows) (*TurnRecord, error) {
	var rec TurnRecord
	var bottomDetail, topDetail sql.NullString
	err := rows.Scan(
		&rec.TurnID, &rec.SessionID, &rec.CompletedFrame, &rec.BottomScore, &rec.TopScore,
		&bottomDetail, &topDetail,
		&rec.SnapshotKnee, &rec.SnapshotTorso, &rec.SnapshotRot,
		&rec.BottomFrames, &rec.TopFrames, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan turn row: %w", err)
	}
	if bottomDetail.Valid {
		rec.BottomDetailJSON = json.RawMessage(bottomDetail.String)
	}
	if topDetail.Valid {
		rec.TopDetailJSON = json.RawMessage(topDetail.String)
	}
	return &rec, nil
}

// retryOnBusy retries a write a few times when SQLite reports lock
// contention. The busy_timeout pragma covers most cases; this catches
// the remainder under WAL checkpointing.
func retryOnBusy(op func() error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		msg := err.Error()
		if !strings.Contains(msg, "database is locked") && !strings.Contains(msg, "SQLITE_BUSY") {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return err
}
