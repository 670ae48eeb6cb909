// Package address translates operator selections into the two-byte target
// used by outbound talk, listen and volume commands, and back.
//
// A group byte with its high bit set selects a whole group; group 1 with
// point 128 selects all points; any other non-zero pair selects one point.
// Group and point numbers on the wire are 1-based and zero marks an absent
// target.
package address
