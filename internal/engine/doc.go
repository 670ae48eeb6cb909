// Package engine serializes everything that touches the station state.
//
// Frames, link signals, target feedback, queries and reloads may arrive from
// any goroutine; the Engine hands them to a single consumer goroutine that
// owns the alarm monitor and its state tree, so each frame is decoded and
// aggregated to completion before the next one is looked at.
package engine
