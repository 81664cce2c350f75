package turns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed pushes n identical triples through the machine, returning any
// results emitted along the way.
func feed(m *Machine, n int, knee, torso, rot float64) []TurnResult {
	var results []TurnResult
	for i := 0; i < n; i++ {
		if r := m.Update(knee, torso, rot); r != nil {
			results = append(results, *r)
		}
	}
	return results
}

func TestMachineStaysIdleWithoutEntry(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	// Standing tall, no rotation: entry window never satisfied.
	results := feed(m, 50, 120, 5, 0)

	assert.Empty(t, results)
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.CurrentSnapshot())
}

func TestMachineEntersBottomOnQualifyingFrame(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	require.Nil(t, m.Update(85, 30, 20))

	assert.Equal(t, StateBottomTurn, m.State())
	snap := m.CurrentSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, Snapshot{Knee: 85, Torso: 30, Rotation: 20}, *snap)
}

func TestMachineEntryRequiresAllConditions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name             string
		knee, torso, rot float64
	}{
		{"knee too extended", 110, 30, 20},
		{"knee too compressed", 60, 30, 20},
		{"torso too upright", 85, 10, 20},
		{"torso over-leaned", 85, 50, 20},
		{"insufficient rotation", 85, 30, 10},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := NewMachine(DefaultConfig())
			m.Update(tc.knee, tc.torso, tc.rot)
			assert.Equal(t, StateIdle, m.State())
		})
	}
}

func TestMachineSnapshotTracksClosestToTarget(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	m.Update(70, 25, 20) // enter; |70-85| = 15
	m.Update(90, 30, 18) // |90-85| = 5: replace
	m.Update(84, 28, 22) // |84-85| = 1: replace
	m.Update(100, 30, 20) // |100-85| = 15: keep

	snap := m.CurrentSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, Snapshot{Knee: 84, Torso: 28, Rotation: 22}, *snap)
}

func TestMachineFullManeuverCycle(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	var results []TurnResult
	collect := func(rs []TurnResult) { results = append(results, rs...) }

	// Compression: enters bottom on the first frame, dwells 8 frames.
	collect(feed(m, 8, 85, 30, 20))
	require.Equal(t, StateBottomTurn, m.State())

	// Extension burst: knee rises 25 degrees in one frame, torso upright.
	// The first such frame satisfies every bottom exit condition.
	collect(feed(m, 2, 110, 15, 20))
	require.NotEqual(t, StateBottomTurn, m.State())

	// Rising to the lip: the transition state consumes exactly 3 frames
	// (one already spent by the second extension frame above).
	collect(feed(m, 2, 110, 25, 15))
	require.Equal(t, StateTopTurn, m.State())

	// Top turn: full extension, upright, rotating. Exit fires once the
	// 6-frame minimum dwell is met.
	collect(feed(m, 8, 130, 15, 20))

	require.Len(t, results, 1)
	result := results[0]

	assert.True(t, strings.HasPrefix(result.ID, "trn_"), "ID = %q", result.ID)
	assert.Equal(t, StateCooldown, m.State())

	// Bottom half scored from the frozen snapshot.
	bottom := result.Bottom
	assert.Equal(t, Snapshot{Knee: 85, Torso: 30, Rotation: 20}, bottom.Snapshot)
	assert.Equal(t, 3, bottom.Detail[CriterionCompression].Points)
	assert.Equal(t, 3, bottom.Detail[CriterionTorsoLean].Points)
	assert.Equal(t, 2, bottom.Detail[CriterionRotation].Points)
	assert.Equal(t, 2, bottom.Detail[CriterionSmoothness].Points)
	assert.Equal(t, BottomScoreCeiling, bottom.Score)
	assert.GreaterOrEqual(t, bottom.Frames, 6)

	// Top half scored from the live exit frame.
	top := result.Top
	assert.Equal(t, 3, top.Detail[CriterionExtension].Points)
	assert.Equal(t, 45.0, top.Detail[CriterionExtension].Raw)
	assert.Equal(t, 2, top.Detail[CriterionUprightTorso].Points)
	assert.Equal(t, 3, top.Detail[CriterionRotation].Points)
	assert.GreaterOrEqual(t, top.Frames, 6)
}

func TestMachineBottomExitRequiresMinimumDwell(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	// Enter bottom, then immediately present exit-worthy frames. The
	// 6-frame dwell must hold the machine in the bottom state.
	m.Update(85, 30, 20)
	m.Update(110, 15, 20) // frame 2: dwell not met
	assert.Equal(t, StateBottomTurn, m.State())
}

func TestMachineCooldownReArms(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	// Drive a complete cycle.
	feed(m, 8, 85, 30, 20)
	feed(m, 2, 110, 15, 20)
	feed(m, 2, 110, 25, 15)
	results := feed(m, 8, 130, 15, 20)
	require.Len(t, results, 1)
	require.Equal(t, StateCooldown, m.State())

	// The top exit consumed 2 of the 8 extension frames in cooldown.
	feed(m, 9, 120, 10, 5)
	assert.Equal(t, StateCooldown, m.State())

	feed(m, 1, 120, 10, 5)
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.CurrentSnapshot())

	// A second maneuver is detectable after re-arming.
	feed(m, 8, 85, 30, 20)
	assert.Equal(t, StateBottomTurn, m.State())
}

func TestMachineIncompleteManeuverEmitsNothing(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	// Enter bottom and reach the top turn, then the stream just ends.
	results := feed(m, 8, 85, 30, 20)
	results = append(results, feed(m, 2, 110, 15, 20)...)
	results = append(results, feed(m, 2, 110, 25, 15)...)
	require.Equal(t, StateTopTurn, m.State())

	assert.Empty(t, results)
}

func TestMachineNeverEmitsShortPhases(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	// A long noisy session with several plausible maneuvers.
	var results []TurnResult
	for cycle := 0; cycle < 4; cycle++ {
		results = append(results, feed(m, 7, 85, 30, 20)...)
		results = append(results, feed(m, 3, 112, 14, 22)...)
		results = append(results, feed(m, 3, 112, 26, 16)...)
		results = append(results, feed(m, 9, 131, 14, 21)...)
		results = append(results, feed(m, 14, 120, 8, 2)...)
	}

	require.NotEmpty(t, results)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Bottom.Frames, 6)
		assert.GreaterOrEqual(t, r.Top.Frames, 6)
	}
}

func TestMachineReset(t *testing.T) {
	t.Parallel()
	m := NewMachine(DefaultConfig())

	feed(m, 8, 85, 30, 20)
	require.Equal(t, StateBottomTurn, m.State())

	m.Reset()

	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 0, m.FrameIndex())
	assert.Nil(t, m.CurrentSnapshot())
}
