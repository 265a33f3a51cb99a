// Package state models the scan session lifecycle as an explicit finite
// state machine. The transition table is fixed at construction; illegal
// transitions are rejected rather than absorbed, which keeps impossible
// session states unrepresentable.
package state
