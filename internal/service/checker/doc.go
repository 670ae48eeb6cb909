// Package checker polls a running dispatch monitor for its alarm list, logs
// every change and optionally runs an operator command when an alarm starts.
package checker
