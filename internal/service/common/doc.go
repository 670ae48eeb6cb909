// Package common holds helpers shared by several services.
//
// It provides a gRPC client for the MonitorService with per-call timeouts
// and detection of the calling host and user, which is attached to every
// request as metadata.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
