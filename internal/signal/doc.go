// Package signal provides the two small signal-conditioning primitives of
// the maneuver engine: a one-parameter exponential moving average and a
// fixed-capacity rolling history used for variance-based smoothness
// scoring.
//
// Both types are plain values with no locking; each analyzer owns its own
// instances and drives them from a single goroutine.
package signal
