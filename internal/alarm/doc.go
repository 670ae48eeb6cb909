// Package alarm aggregates decoded status frames into the station alarm list.
//
// A Monitor applies frames to the state tree, classifies faults and keeps
// three lists: the synthetic link-loss entry, the group alarms (recomputed on
// every group frame) and the point alarms (cleared on page 0 of a point
// frame cycle, accumulated across later pages). It also tracks the
// no-alarm/alarm transition and notifies a Signaler once per transition.
package alarm
