// Package monitor implements the gRPC transport of the dispatch monitor.
//
// The MonitorService is declared by hand over protobuf well-known types:
// frames travel as BytesValue, flags as BoolValue and every view is a
// google.protobuf.Struct. The transport collaborator pushes frames and link
// signals through it; presentation clients read alarms, groups and targets.
package monitor
