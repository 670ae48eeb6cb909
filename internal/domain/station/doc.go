// Package station contains the core domain types of the dispatch station:
// groups of field points, their line and output states, firmware and volume
// tags, and the alarm entries raised for them.
//
// The types are plain values. Mutation is owned by the tree package; callers
// outside of it only receive copies.
package station
