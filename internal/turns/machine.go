package turns

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/wavewatch-data/maneuver.report/internal/signal"
)

// TurnState represents the detection phase of the maneuver state machine.
type TurnState string

const (
	StateIdle       TurnState = "idle"        // Waiting for a bottom-turn entry
	StateBottomTurn TurnState = "bottom_turn" // Compression phase in progress
	StateTransition TurnState = "transition"  // Rising to the lip
	StateTopTurn    TurnState = "top_turn"    // Extension phase in progress
	StateCooldown   TurnState = "cooldown"    // Re-arming before the next maneuver
)

// Machine detects one bottom-turn/top-turn cycle at a time in a stream of
// smoothed (knee, torso, rotation) triples. It owns the rolling phase
// histories and the best-compression snapshot, invokes the rubric at exit
// transitions, and emits exactly one TurnResult per completed cycle.
//
// Not safe for concurrent use; one goroutine per machine. Frames must be
// submitted in arrival order; out-of-order submission silently corrupts
// the histories and the delta-based exit conditions.
type Machine struct {
	cfg Config

	state       TurnState
	stateFrames int // Frames elapsed in the current state
	frameIndex  int // Total frames observed since construction/reset

	prevKnee    float64 // Previous frame's smoothed knee
	hasPrevKnee bool

	snapshot      *Snapshot   // Peak-compression sample; nil outside a cycle
	pendingBottom *BottomTurn // Finalised bottom half awaiting its top half

	// Bottom-phase histories accumulate during idle and bottom-turn;
	// top-phase histories during transition and top-turn.
	bottomKnee, bottomTorso, bottomRot *signal.History
	topKnee, topTorso, topRot          *signal.History
}

// NewMachine creates a machine in the idle state.
func NewMachine(cfg Config) *Machine {
	return &Machine{
		cfg:         cfg,
		state:       StateIdle,
		bottomKnee:  signal.NewHistory(cfg.HistoryCapacity),
		bottomTorso: signal.NewHistory(cfg.HistoryCapacity),
		bottomRot:   signal.NewHistory(cfg.HistoryCapacity),
		topKnee:     signal.NewHistory(cfg.HistoryCapacity),
		topTorso:    signal.NewHistory(cfg.HistoryCapacity),
		topRot:      signal.NewHistory(cfg.HistoryCapacity),
	}
}

// State returns the current detection phase.
func (m *Machine) State() TurnState {
	return m.state
}

// FrameIndex returns the number of frames observed since construction or
// the last reset.
func (m *Machine) FrameIndex() int {
	return m.frameIndex
}

// CurrentSnapshot returns a copy of the tracked peak-compression sample,
// or nil when no cycle is in progress.
func (m *Machine) CurrentSnapshot() *Snapshot {
	if m.snapshot == nil {
		return nil
	}
	copied := *m.snapshot
	return &copied
}

// Reset returns the machine to its initial idle state, clearing the
// snapshot, any half-finished maneuver, and all histories.
func (m *Machine) Reset() {
	m.state = StateIdle
	m.stateFrames = 0
	m.frameIndex = 0
	m.prevKnee = 0
	m.hasPrevKnee = false
	m.snapshot = nil
	m.pendingBottom = nil
	m.resetBottomHistories()
	m.resetTopHistories()
}

// Update consumes one frame's smoothed triple, advances the state machine,
// and returns a TurnResult when this frame completes a maneuver cycle
// (the top-turn exit) or nil otherwise. Must be called once per frame in
// strict arrival order.
func (m *Machine) Update(knee, torso, rot float64) *TurnResult {
	m.frameIndex++

	// Phase histories fill based on the state the frame arrives in.
	switch m.state {
	case StateIdle, StateBottomTurn:
		m.bottomKnee.Push(knee)
		m.bottomTorso.Push(torso)
		m.bottomRot.Push(rot)
	case StateTransition, StateTopTurn:
		m.topKnee.Push(knee)
		m.topTorso.Push(torso)
		m.topRot.Push(rot)
	}

	var result *TurnResult

	switch m.state {
	case StateIdle:
		if m.entryConditionsMet(knee, torso, rot) {
			m.state = StateBottomTurn
			m.stateFrames = 1 // The entry frame counts as the first bottom frame
			m.snapshot = &Snapshot{Knee: knee, Torso: torso, Rotation: rot}
		}

	case StateBottomTurn:
		m.stateFrames++
		m.trackDeepestCompression(knee, torso, rot)
		if m.bottomExitConditionsMet(knee, torso) {
			m.finaliseBottom()
		}

	case StateTransition:
		m.stateFrames++
		if m.stateFrames >= m.cfg.TransitionFrames {
			m.state = StateTopTurn
			m.stateFrames = 0
		}

	case StateTopTurn:
		m.stateFrames++
		if m.topExitConditionsMet(knee, torso, rot) {
			result = m.finaliseTop(knee, torso, rot)
		}

	case StateCooldown:
		m.stateFrames++
		if m.stateFrames >= m.cfg.CooldownFrames {
			m.state = StateIdle
			m.stateFrames = 0
			m.snapshot = nil
			m.pendingBottom = nil
			m.resetBottomHistories()
			m.resetTopHistories()
		}
	}

	m.prevKnee = knee
	m.hasPrevKnee = true
	return result
}

// entryConditionsMet checks the bottom-turn entry window: compressed knees,
// leaned torso, and upper-body rotation, all in the same frame.
func (m *Machine) entryConditionsMet(knee, torso, rot float64) bool {
	return knee >= m.cfg.EntryKneeMin && knee <= m.cfg.EntryKneeMax &&
		torso >= m.cfg.EntryTorsoMin && torso <= m.cfg.EntryTorsoMax &&
		rot >= m.cfg.EntryRotationMin
}

// trackDeepestCompression replaces the snapshot whenever the current knee
// angle sits closer to the target compression angle than the stored one.
// Under oscillating noise this rule can settle on a non-extremal sample;
// that is accepted behaviour, kept for score stability across versions.
func (m *Machine) trackDeepestCompression(knee, torso, rot float64) {
	if m.snapshot == nil {
		m.snapshot = &Snapshot{Knee: knee, Torso: torso, Rotation: rot}
		return
	}
	if math.Abs(knee-m.cfg.TargetKneeDeg) < math.Abs(m.snapshot.Knee-m.cfg.TargetKneeDeg) {
		m.snapshot = &Snapshot{Knee: knee, Torso: torso, Rotation: rot}
	}
}

// bottomExitConditionsMet requires, in one frame: the knee extending
// faster than the rise threshold, the torso coming upright (either under
// the absolute threshold or well under the snapshot's lean), a minimum
// dwell in the state, and a captured snapshot.
func (m *Machine) bottomExitConditionsMet(knee, torso float64) bool {
	if m.snapshot == nil || m.stateFrames < m.cfg.MinStateFrames {
		return false
	}
	kneeRose := m.hasPrevKnee && knee-m.prevKnee > m.cfg.BottomExitKneeRise
	torsoUpright := torso < m.cfg.BottomExitTorsoUpright ||
		torso <= m.snapshot.Torso-m.cfg.BottomExitTorsoDrop
	return kneeRose && torsoUpright
}

// finaliseBottom scores the bottom turn from the frozen snapshot plus the
// bottom-phase histories, stores it pending the top half, and moves to the
// transition state with fresh top-phase histories.
func (m *Machine) finaliseBottom() {
	score, detail := m.cfg.Rubric.ScoreBottomTurn(
		m.snapshot.Knee, m.snapshot.Torso, m.snapshot.Rotation,
		m.bottomKnee, m.bottomTorso, m.bottomRot,
	)
	m.pendingBottom = &BottomTurn{
		Score:    score,
		Detail:   detail,
		Snapshot: *m.snapshot,
		Frames:   m.stateFrames,
	}
	m.resetTopHistories()
	m.state = StateTransition
	m.stateFrames = 0
}

// topExitConditionsMet requires an upright torso, maintained rotation,
// knee extension over the snapshot (vacuously true without a snapshot),
// and a minimum dwell in the state.
func (m *Machine) topExitConditionsMet(knee, torso, rot float64) bool {
	if m.stateFrames < m.cfg.MinStateFrames {
		return false
	}
	extended := m.snapshot == nil || knee-m.snapshot.Knee >= m.cfg.TopExitExtensionMin
	return torso <= m.cfg.TopExitTorsoMax && rot >= m.cfg.TopExitRotationMin && extended
}

// finaliseTop scores the top turn from the live frame plus the top-phase
// histories, assembles the TurnResult pairing both halves, and moves to
// cooldown. This is the only transition that yields a result.
func (m *Machine) finaliseTop(knee, torso, rot float64) *TurnResult {
	var kneeAtBottom *float64
	if m.snapshot != nil {
		kneeAtBottom = &m.snapshot.Knee
	}
	score, detail := m.cfg.Rubric.ScoreTopTurn(
		knee, kneeAtBottom, torso, rot,
		m.topKnee, m.topTorso, m.topRot,
	)

	var bottom BottomTurn
	if m.pendingBottom != nil {
		bottom = *m.pendingBottom
	}

	result := &TurnResult{
		ID:             fmt.Sprintf("trn_%s", uuid.NewString()),
		CompletedFrame: m.frameIndex,
		Bottom:         bottom,
		Top: TopTurn{
			Score:  score,
			Detail: detail,
			Frames: m.stateFrames,
		},
	}

	m.state = StateCooldown
	m.stateFrames = 0
	return result
}

func (m *Machine) resetBottomHistories() {
	m.bottomKnee.Reset()
	m.bottomTorso.Reset()
	m.bottomRot.Reset()
}

func (m *Machine) resetTopHistories() {
	m.topKnee.Reset()
	m.topTorso.Reset()
	m.topRot.Reset()
}
