package pose

// Canonical joint names. Producers (external pose estimators) are expected
// to label landmarks with these names; extraction treats any other name as
// absent.
const (
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Joint is a single named body landmark for one frame. X and Y are in
// percentage-of-frame units (0-100 per axis) so geometry is resolution
// independent. Z is an optional relative depth hint and is ignored by all
// angle extraction. Confidence is the estimator's score in [0, 1].
type Joint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Confidence float64 `json:"confidence"`
}

// FramePose is the set of uniquely-named joints detected for one video
// frame. Some names may be absent; extraction functions degrade to
// documented defaults rather than failing.
type FramePose map[string]Joint

// Get returns the named joint and whether it was present in the frame.
func (fp FramePose) Get(name string) (Joint, bool) {
	j, ok := fp[name]
	return j, ok
}

// Has reports whether every one of the given joint names is present.
func (fp FramePose) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := fp[name]; !ok {
			return false
		}
	}
	return true
}

// midpoint returns the point halfway between two joints.
func midpoint(a, b Joint) (x, y float64) {
	return (a.X + b.X) / 2, (a.Y + b.Y) / 2
}
