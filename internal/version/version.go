// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// New fills unset fields with placeholders so a plain `go build` still
// reports something readable.
func New(version, commit, buildTime string) Info {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}
	return Info{Version: version, GitCommit: commit, BuildTime: buildTime}
}

// String formats the info for `vitrine version` and startup logs.
func (i Info) String() string {
	return fmt.Sprintf("vitrine %s (commit %s, built %s)", i.Version, i.GitCommit, i.BuildTime)
}

// LogAttrs returns key/value pairs for slog.
func (i Info) LogAttrs() []any {
	return []any{"version", i.Version, "commit", i.GitCommit, "build_time", i.BuildTime}
}
