package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// shortCommitLength is how many characters of a VCS revision are shown.
const shortCommitLength = 7

// Info is the resolved build metadata.
type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Current resolves the build metadata, filling gaps from the embedded VCS stamp.
func Current() Info {
	var settings []debug.BuildSetting
	if build, ok := debug.ReadBuildInfo(); ok {
		settings = build.Settings
	}

	return resolve(settings)
}

// resolve applies VCS build settings to fields left at their defaults.
func resolve(settings []debug.BuildSetting) Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}

	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "none" && setting.Value != "" {
				info.Commit = setting.Value[:min(len(setting.Value), shortCommitLength)]
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && setting.Value != "" {
				info.BuildTime = setting.Value
			}
		}
	}

	return info
}

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	info := Current()

	return fmt.Sprintf("version: %s, commit: %s, built at: %s", info.Version, info.Commit, info.BuildTime)
}

// KV returns the metadata as logger key/value pairs.
func KV() []any {
	info := Current()

	return []any{"version", info.Version, "commit", info.Commit, "build_time", info.BuildTime}
}
