package pose

import "math"

// Default angles returned when a frame is missing the landmarks a signal
// needs. Downstream logic tolerates the reduced signal quality; nothing
// in this package signals failure.
const (
	// DefaultTorsoLeanDeg is returned when either shoulder or hip is absent.
	DefaultTorsoLeanDeg = 0.0
	// DefaultRotationDeg is returned when either shoulder or hip is absent.
	DefaultRotationDeg = 0.0
	// DefaultKneeFlexionDeg is a neutral standing knee angle, returned when
	// any of hip/knee/ankle is absent on either side.
	DefaultKneeFlexionDeg = 90.0

	// magnitudeEpsilon guards division by near-zero vector magnitudes.
	magnitudeEpsilon = 1e-9
)

// AngleAtVertex returns the angle in degrees at vertex b between the rays
// b->a and b->c, in [0, 180]. Symmetric under swapping a and c. Degenerate
// triples (coincident points) yield 0 rather than NaN.
func AngleAtVertex(a, b, c Joint) float64 {
	bax := a.X - b.X
	bay := a.Y - b.Y
	bcx := c.X - b.X
	bcy := c.Y - b.Y

	dot := bax*bcx + bay*bcy
	magBA := math.Hypot(bax, bay)
	magBC := math.Hypot(bcx, bcy)

	cos := dot / (magBA*magBC + magnitudeEpsilon)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// TorsoLeanAngle returns the angle in degrees between the hip-to-shoulder
// axis and the vertical "up" reference, in [0, 180]. 0 means fully upright.
// Requires both shoulders and both hips; returns DefaultTorsoLeanDeg when
// any is absent.
//
// Frame coordinates grow downward, so "up" is the -Y direction.
func TorsoLeanAngle(fp FramePose) float64 {
	if !fp.Has(LeftShoulder, RightShoulder, LeftHip, RightHip) {
		return DefaultTorsoLeanDeg
	}

	sx, sy := midpoint(fp[LeftShoulder], fp[RightShoulder])
	hx, hy := midpoint(fp[LeftHip], fp[RightHip])

	// Torso axis from hip midpoint toward shoulder midpoint.
	vx := sx - hx
	vy := sy - hy

	// Angle against up = (0, -1): cos = -vy / |v|.
	mag := math.Hypot(vx, vy)
	cos := -vy / (mag + magnitudeEpsilon)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// RotationDifferential returns the absolute difference in degrees between
// the shoulder-line orientation and the hip-line orientation, normalised
// into [0, 180]. A large differential indicates upper-body counter-rotation
// against the hips. Requires both shoulders and both hips; returns
// DefaultRotationDeg when any is absent.
func RotationDifferential(fp FramePose) float64 {
	if !fp.Has(LeftShoulder, RightShoulder, LeftHip, RightHip) {
		return DefaultRotationDeg
	}

	shoulderDeg := lineAngleDeg(fp[LeftShoulder], fp[RightShoulder])
	hipDeg := lineAngleDeg(fp[LeftHip], fp[RightHip])

	diff := math.Abs(shoulderDeg - hipDeg)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// AverageKneeFlexion returns the mean of the left and right knee flexion
// angles (hip-knee-ankle) in degrees. Requires hip, knee, and ankle on both
// sides; returns DefaultKneeFlexionDeg when any is absent.
func AverageKneeFlexion(fp FramePose) float64 {
	if !fp.Has(LeftHip, LeftKnee, LeftAnkle, RightHip, RightKnee, RightAnkle) {
		return DefaultKneeFlexionDeg
	}

	left := AngleAtVertex(fp[LeftHip], fp[LeftKnee], fp[LeftAnkle])
	right := AngleAtVertex(fp[RightHip], fp[RightKnee], fp[RightAnkle])
	return (left + right) / 2
}

// lineAngleDeg returns the orientation in degrees of the vector from joint
// a to joint b, via atan2, in (-180, 180].
func lineAngleDeg(a, b Joint) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}
