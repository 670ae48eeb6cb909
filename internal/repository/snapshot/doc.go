// Package snapshot persists the alarm-active state of the monitor so that a
// restarted process keeps the original start time of an ongoing alarm.
//
// The FileRepository stores the snapshot as protobuf JSON of a
// google.protobuf.Struct.
package snapshot
