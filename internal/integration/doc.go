// Package integration runs the monitor and the checker end to end over real
// TCP connections. It contains tests only.
package integration
