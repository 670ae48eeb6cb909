// Package frame decodes the status frames polled from the station.
//
// Two frame kinds exist and carry no tag of their own: the point-status frame,
// a paginated list of 8-byte point records, and the group-status frame, 32
// fixed 5-byte group records. Decoding is pure: it never touches the state
// tree and rejects inconsistent frames as a whole.
package frame
