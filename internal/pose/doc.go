// Package pose owns the input layer of the maneuver analysis data model.
//
// Responsibilities: joint sample and frame pose types, and the pure
// geometry that reduces a frame pose to the three scalar angle signals
// the detection engine consumes (knee flexion, torso lean, shoulder/hip
// rotation differential).
// Key types: Joint, FramePose.
//
// Dependency rule: pose depends on nothing but the standard library and
// has no mutable state. Missing landmarks degrade to documented default
// angles; no function in this package returns an error.
package pose
