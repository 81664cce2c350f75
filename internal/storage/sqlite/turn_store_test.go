package sqlite

import (
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"github.com/wavewatch-data/maneuver.report/internal/turns"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult(id string, frame int) turns.TurnResult {
	return turns.TurnResult{
		ID:             id,
		CompletedFrame: frame,
		Bottom: turns.BottomTurn{
			Score: 9,
			Detail: turns.ScoreDetail{
				turns.CriterionCompression: {Points: 3, Raw: 85},
				turns.CriterionTorsoLean:   {Points: 3, Raw: 30},
				turns.CriterionRotation:    {Points: 2, Raw: 20},
				turns.CriterionSmoothness:  {Points: 1, Raw: 9.5},
			},
			Snapshot: turns.Snapshot{Knee: 85, Torso: 30, Rotation: 20},
			Frames:   9,
		},
		Top: turns.TopTurn{
			Score: 8,
			Detail: turns.ScoreDetail{
				turns.CriterionExtension:    {Points: 3, Raw: 45},
				turns.CriterionUprightTorso: {Points: 2, Raw: 15},
				turns.CriterionRotation:     {Points: 3, Raw: 20},
				turns.CriterionSmoothness:   {Points: 0, Raw: 14.2},
			},
			Frames: 6,
		},
	}
}

func TestTurnStore_InsertSessionAndGet(t *testing.T) {
	db := setupTestDB(t)
	store := NewTurnStore(db)

	rec := &SessionRecord{
		Source:       "session-042.mp4",
		RecordedAtNs: 1700000000000000000,
		FPS:          30,
		FrameCount:   5400,
	}
	if err := store.InsertSession(rec); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	if !strings.HasPrefix(rec.SessionID, "ses_") {
		t.Errorf("expected generated session ID, got %q", rec.SessionID)
	}
	if rec.CreatedAt == 0 {
		t.Error("expected CreatedAt to be populated")
	}

	got, err := store.GetSession(rec.SessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Source != rec.Source || got.FrameCount != rec.FrameCount || got.FPS != rec.FPS {
		t.Errorf("session mismatch: got %+v, want %+v", got, rec)
	}
}

func TestTurnStore_GetSessionMissing(t *testing.T) {
	store := NewTurnStore(setupTestDB(t))
	if _, err := store.GetSession("ses_missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestTurnStore_SaveResultsAndList(t *testing.T) {
	store := NewTurnStore(setupTestDB(t))

	session := &SessionRecord{Source: "clip.mp4", RecordedAtNs: 1000, FPS: 30, FrameCount: 600}
	results := []turns.TurnResult{
		sampleResult("trn_a", 120),
		sampleResult("trn_b", 310),
	}
	if err := store.SaveResults(session, results); err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}

	recs, err := store.ListBySession(session.SessionID)
	if err != nil {
		t.Fatalf("ListBySession failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(recs))
	}
	if recs[0].TurnID != "trn_a" || recs[1].TurnID != "trn_b" {
		t.Errorf("turns out of completion order: %q, %q", recs[0].TurnID, recs[1].TurnID)
	}
	if recs[0].BottomScore != 9 || recs[0].TopScore != 8 {
		t.Errorf("score mismatch: bottom=%d top=%d", recs[0].BottomScore, recs[0].TopScore)
	}
	if recs[0].SnapshotKnee != 85 || recs[0].SnapshotTorso != 30 || recs[0].SnapshotRot != 20 {
		t.Errorf("snapshot mismatch: %+v", recs[0])
	}

	// Detail JSON survives the round trip in engine form.
	var detail turns.ScoreDetail
	if err := json.Unmarshal(recs[0].BottomDetailJSON, &detail); err != nil {
		t.Fatalf("failed to decode bottom detail: %v", err)
	}
	if detail[turns.CriterionCompression].Points != 3 || detail[turns.CriterionCompression].Raw != 85 {
		t.Errorf("compression detail mismatch: %+v", detail[turns.CriterionCompression])
	}
}

func TestTurnStore_InsertTurnGeneratesID(t *testing.T) {
	store := NewTurnStore(setupTestDB(t))

	session := &SessionRecord{Source: "clip.mp4"}
	if err := store.InsertSession(session); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	rec := &TurnRecord{SessionID: session.SessionID, CompletedFrame: 42, BottomScore: 5, TopScore: 4}
	if err := store.InsertTurn(rec); err != nil {
		t.Fatalf("InsertTurn failed: %v", err)
	}
	if !strings.HasPrefix(rec.TurnID, "trn_") {
		t.Errorf("expected generated turn ID, got %q", rec.TurnID)
	}
}

func TestTurnStore_InsertTurnRequiresSession(t *testing.T) {
	store := NewTurnStore(setupTestDB(t))

	rec := &TurnRecord{SessionID: "ses_nonexistent", CompletedFrame: 1}
	if err := store.InsertTurn(rec); err == nil {
		t.Fatal("expected foreign key violation for missing session")
	}
}

func TestTurnStore_Summary(t *testing.T) {
	store := NewTurnStore(setupTestDB(t))

	session := &SessionRecord{Source: "clip.mp4"}
	r1 := sampleResult("trn_a", 100) // 9 + 8 = 17
	r2 := sampleResult("trn_b", 200)
	r2.Bottom.Score = 7
	r2.Top.Score = 6 // 13
	if err := store.SaveResults(session, []turns.TurnResult{r1, r2}); err != nil {
		t.Fatalf("SaveResults failed: %v", err)
	}

	summary, err := store.Summary(session.SessionID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TurnCount != 2 {
		t.Errorf("expected 2 turns, got %d", summary.TurnCount)
	}
	if summary.MeanBottomScore != 8 {
		t.Errorf("mean bottom = %v, want 8", summary.MeanBottomScore)
	}
	if summary.MeanTopScore != 7 {
		t.Errorf("mean top = %v, want 7", summary.MeanTopScore)
	}
	if summary.MeanTotalScore != 15 {
		t.Errorf("mean total = %v, want 15", summary.MeanTotalScore)
	}
	if summary.BestTotalScore != 17 {
		t.Errorf("best total = %v, want 17", summary.BestTotalScore)
	}
}

func TestTurnStore_SummaryEmptySession(t *testing.T) {
	store := NewTurnStore(setupTestDB(t))

	summary, err := store.Summary("ses_empty")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TurnCount != 0 || summary.MeanTotalScore != 0 || summary.BestTotalScore != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}
