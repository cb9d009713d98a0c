// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name                    string
		version, commit, built  string
		wantVersion, wantCommit string
	}{
		{"injected", "v1.0.0", "abc1234", "2025-01-30T12:00:00Z", "v1.0.0", "abc1234"},
		{"zero values", "", "", "", "dev", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := New(tt.version, tt.commit, tt.built)
			if info.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", info.Version, tt.wantVersion)
			}
			if info.GitCommit != tt.wantCommit {
				t.Errorf("GitCommit = %q, want %q", info.GitCommit, tt.wantCommit)
			}
			if info.BuildTime == "" {
				t.Error("BuildTime should never be empty")
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.0.0", GitCommit: "abc1234", BuildTime: "2025-01-30T12:00:00Z"}

	want := "vitrine v1.0.0 (commit abc1234, built 2025-01-30T12:00:00Z)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInfoLogAttrs(t *testing.T) {
	attrs := New("v2", "", "").LogAttrs()
	if len(attrs) != 6 {
		t.Fatalf("LogAttrs() has %d elements, want 6", len(attrs))
	}
	if attrs[0] != "version" || attrs[1] != "v2" {
		t.Errorf("LogAttrs()[0:2] = %v", attrs[:2])
	}
}
