// Package config defines the station configuration shared by the binaries and
// provides helpers to load, validate and save it in YAML format.
//
// Besides connection settings it lists the configured groups and the names of
// their points, from which the state tree is built.
package config
