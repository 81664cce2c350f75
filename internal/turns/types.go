package turns

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the (knee, torso, rotation) triple judged most representative
// of peak bottom-turn compression. It is mutable only while the machine is
// in the bottom-turn state and frozen thereafter.
type Snapshot struct {
	Knee     float64 `json:"knee"`
	Torso    float64 `json:"torso"`
	Rotation float64 `json:"rot"`
}

// CriterionScore pairs the points awarded for one rubric criterion with the
// raw measured value the points were derived from. It serialises as the
// two-element array [points, raw_value].
type CriterionScore struct {
	Points int
	Raw    float64
}

// MarshalJSON encodes the score as [points, raw_value].
func (cs CriterionScore) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{cs.Points, cs.Raw})
}

// UnmarshalJSON decodes the [points, raw_value] pair form.
func (cs *CriterionScore) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("criterion score must be a [points, raw] pair: %w", err)
	}
	cs.Points = int(pair[0])
	cs.Raw = pair[1]
	return nil
}

// ScoreDetail maps criterion name to the points awarded and the raw value
// measured for it. The sum of points never exceeds the phase ceiling.
type ScoreDetail map[string]CriterionScore

// TotalPoints returns the sum of awarded points across all criteria.
func (d ScoreDetail) TotalPoints() int {
	total := 0
	for _, cs := range d {
		total += cs.Points
	}
	return total
}

// BottomTurn is the finalised compression half of a maneuver.
type BottomTurn struct {
	Score    int         `json:"score"`
	Detail   ScoreDetail `json:"detail"`
	Snapshot Snapshot    `json:"snapshot"`
	Frames   int         `json:"frames"`
}

// TopTurn is the finalised extension half of a maneuver.
type TopTurn struct {
	Score  int         `json:"score"`
	Detail ScoreDetail `json:"detail"`
	Frames int         `json:"frames"`
}

// TurnResult is the immutable pairing of a finalised bottom turn with its
// finalised top turn. Exactly one is created per completed maneuver cycle,
// at the moment the machine leaves the top-turn state; ownership passes to
// the caller.
type TurnResult struct {
	// ID is globally unique across analyzer resets and sessions.
	ID string `json:"id"`
	// CompletedFrame is the 1-based index of the frame whose processing
	// completed the cycle.
	CompletedFrame int        `json:"completed_frame"`
	Bottom         BottomTurn `json:"bottom_turn"`
	Top            TopTurn    `json:"top_turn"`
}
