// Package tree implements the in-memory state tree of a dispatch station:
// 32 fixed group slots, each holding the last-known state of its configured
// points.
//
// All mutation goes through the Tree's own methods. The tree is not safe for
// concurrent use; the engine package serializes access to it.
package tree
