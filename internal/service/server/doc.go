// Package server runs the dispatch monitor: it builds the state tree from the
// configuration, owns the engine and serves the MonitorService over gRPC.
package server
