// Package turns owns maneuver detection and scoring: the finite-state
// machine that recognises a bottom-turn/top-turn cycle in the smoothed
// angle signals, the tiered rubric that scores each phase, and the
// Analyzer facade that ties filters, machine, and result accumulation
// together behind a single per-frame entry point.
//
// Key types: Analyzer, Machine, TurnResult, Rubric.
//
// Everything here is single-threaded: one Analyzer per stream,
// frames submitted in strict arrival order. Out-of-order submission is a
// documented caller error and is not detected.
package turns
