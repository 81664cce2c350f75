package turns

import (
	"math"

	"github.com/wavewatch-data/maneuver.report/internal/signal"
)

// Criterion names used in score details. These are stable keys: they appear
// in serialised results and in the exported database rows.
const (
	CriterionCompression  = "compression"
	CriterionTorsoLean    = "torso_lean"
	CriterionRotation     = "rotation"
	CriterionSmoothness   = "smoothness"
	CriterionExtension    = "extension"
	CriterionUprightTorso = "upright_torso"
)

// Phase score ceilings.
const (
	BottomScoreCeiling = 10
	TopScoreCeiling    = 10
)

// Range is an inclusive numeric band.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the band, boundaries included.
// Boundary inclusivity is load-bearing: exclusive edges would silently
// shift scores at exact threshold values.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// BottomRubric holds the tier bands for bottom-turn scoring. The three
// compression and torso bands are nested envelopes: Ideal within Good
// within Fair, checked innermost first, so the two outer tiers award the
// spec's union bands without spelling the unions out.
type BottomRubric struct {
	CompressionIdeal Range // 3 points
	CompressionGood  Range // 2 points (envelope around Ideal)
	CompressionFair  Range // 1 point (envelope around Good)

	TorsoIdeal Range // 3 points
	TorsoGood  Range // 2 points
	TorsoFair  Range // 1 point

	RotationStrong   float64 // >= awards 2 points
	RotationModerate float64 // >= awards 1 point

	SmoothnessTight float64 // proxy <= awards 2 points
	SmoothnessLoose float64 // proxy <= awards 1 point
}

// TopRubric holds the tier thresholds for top-turn scoring.
type TopRubric struct {
	ExtensionStrong float64 // knee delta >= awards 3 points
	ExtensionGood   float64 // >= awards 2
	ExtensionFair   float64 // >= awards 1

	TorsoUprightIdeal float64 // torso <= awards 2 points
	TorsoUprightGood  float64 // <= awards 1

	RotationStrong float64 // >= awards 3 points
	RotationGood   float64 // >= awards 2
	RotationFair   float64 // >= awards 1

	SmoothnessTight float64 // proxy <= awards 2 points
	SmoothnessLoose float64 // <= awards 1
}

// Rubric bundles both phase rubrics with the shared smoothness sample rule.
type Rubric struct {
	Bottom BottomRubric
	Top    TopRubric

	// SmoothnessMinSamples is the minimum history length for a standard
	// deviation to count; shorter histories contribute 0 to the proxy.
	SmoothnessMinSamples int
}

// DefaultRubric returns the canonical scoring bands.
func DefaultRubric() Rubric {
	return Rubric{
		Bottom: BottomRubric{
			CompressionIdeal: Range{Min: 70, Max: 100},
			CompressionGood:  Range{Min: 60, Max: 110},
			CompressionFair:  Range{Min: 50, Max: 120},

			TorsoIdeal: Range{Min: 20, Max: 40},
			TorsoGood:  Range{Min: 15, Max: 50},
			TorsoFair:  Range{Min: 10, Max: 60},

			RotationStrong:   15,
			RotationModerate: 10,

			SmoothnessTight: 8,
			SmoothnessLoose: 12,
		},
		Top: TopRubric{
			ExtensionStrong: 15,
			ExtensionGood:   10,
			ExtensionFair:   5,

			TorsoUprightIdeal: 20,
			TorsoUprightGood:  30,

			RotationStrong: 15,
			RotationGood:   10,
			RotationFair:   5,

			SmoothnessTight: 8,
			SmoothnessLoose: 12,
		},
		SmoothnessMinSamples: 5,
	}
}

// ScoreBottomTurn scores a finalised bottom turn from the snapshot triple
// and the accumulated bottom-phase histories. Returns the point total
// (ceiling 10) and the per-criterion breakdown.
func (r Rubric) ScoreBottomTurn(knee, torso, rot float64, kneeHist, torsoHist, rotHist *signal.History) (int, ScoreDetail) {
	detail := make(ScoreDetail, 4)

	var compression int
	switch {
	case r.Bottom.CompressionIdeal.Contains(knee):
		compression = 3
	case r.Bottom.CompressionGood.Contains(knee):
		compression = 2
	case r.Bottom.CompressionFair.Contains(knee):
		compression = 1
	}
	detail[CriterionCompression] = CriterionScore{Points: compression, Raw: round2(knee)}

	var lean int
	switch {
	case r.Bottom.TorsoIdeal.Contains(torso):
		lean = 3
	case r.Bottom.TorsoGood.Contains(torso):
		lean = 2
	case r.Bottom.TorsoFair.Contains(torso):
		lean = 1
	}
	detail[CriterionTorsoLean] = CriterionScore{Points: lean, Raw: round2(torso)}

	var rotation int
	switch {
	case rot >= r.Bottom.RotationStrong:
		rotation = 2
	case rot >= r.Bottom.RotationModerate:
		rotation = 1
	}
	detail[CriterionRotation] = CriterionScore{Points: rotation, Raw: round2(rot)}

	proxy := r.smoothnessProxy(kneeHist, torsoHist, rotHist)
	var smoothness int
	switch {
	case proxy <= r.Bottom.SmoothnessTight:
		smoothness = 2
	case proxy <= r.Bottom.SmoothnessLoose:
		smoothness = 1
	}
	detail[CriterionSmoothness] = CriterionScore{Points: smoothness, Raw: round2(proxy)}

	return detail.TotalPoints(), detail
}

// ScoreTopTurn scores a finalised top turn from the live frame values and
// the top-phase histories. kneeAtBottom is the frozen snapshot knee, or nil
// when no snapshot was captured (degraded input: the delta is measured
// against 0). Returns the point total (ceiling 10) and the breakdown.
func (r Rubric) ScoreTopTurn(kneeNow float64, kneeAtBottom *float64, torso, rot float64, kneeHist, torsoHist, rotHist *signal.History) (int, ScoreDetail) {
	detail := make(ScoreDetail, 4)

	base := 0.0
	if kneeAtBottom != nil {
		base = *kneeAtBottom
	}
	delta := kneeNow - base
	var extension int
	switch {
	case delta >= r.Top.ExtensionStrong:
		extension = 3
	case delta >= r.Top.ExtensionGood:
		extension = 2
	case delta >= r.Top.ExtensionFair:
		extension = 1
	}
	detail[CriterionExtension] = CriterionScore{Points: extension, Raw: round2(delta)}

	var upright int
	switch {
	case torso <= r.Top.TorsoUprightIdeal:
		upright = 2
	case torso <= r.Top.TorsoUprightGood:
		upright = 1
	}
	detail[CriterionUprightTorso] = CriterionScore{Points: upright, Raw: round2(torso)}

	var rotation int
	switch {
	case rot >= r.Top.RotationStrong:
		rotation = 3
	case rot >= r.Top.RotationGood:
		rotation = 2
	case rot >= r.Top.RotationFair:
		rotation = 1
	}
	detail[CriterionRotation] = CriterionScore{Points: rotation, Raw: round2(rot)}

	proxy := r.smoothnessProxy(kneeHist, torsoHist, rotHist)
	var smoothness int
	switch {
	case proxy <= r.Top.SmoothnessTight:
		smoothness = 2
	case proxy <= r.Top.SmoothnessLoose:
		smoothness = 1
	}
	detail[CriterionSmoothness] = CriterionScore{Points: smoothness, Raw: round2(proxy)}

	return detail.TotalPoints(), detail
}

// smoothnessProxy averages the population standard deviation of each
// history. Histories shorter than SmoothnessMinSamples contribute 0, so
// early finalisations lean toward "smooth" rather than penalising a rider
// for a short phase.
func (r Rubric) smoothnessProxy(hists ...*signal.History) float64 {
	if len(hists) == 0 {
		return 0
	}
	sum := 0.0
	for _, h := range hists {
		if h == nil || h.Len() < r.SmoothnessMinSamples {
			continue
		}
		sum += h.PopStdDev()
	}
	return sum / float64(len(hists))
}

// round2 rounds to two decimal places for reporting.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
