// Package version exposes build metadata of the dispatch monitor binaries.
//
// Version, Commit and BuildTime are injected with -ldflags; when they are
// not, Commit and BuildTime fall back to the VCS stamp the Go toolchain
// embeds in the binary.
package version
