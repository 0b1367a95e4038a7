package version

import (
	"testing"
	"time"
)

func stamp(t *testing.T, v, commit, built string) {
	t.Helper()
	oldV, oldC, oldB := Version, Commit, BuildTime
	Version, Commit, BuildTime = v, commit, built
	t.Cleanup(func() { Version, Commit, BuildTime = oldV, oldC, oldB })
}

func TestGetUsesLinkTimeValues(t *testing.T) {
	stamp(t, "1.4.0", "abc1234", "2026-03-01T12:00:00Z")

	info := Get()
	if info.Version != "1.4.0" || info.Commit != "abc1234" {
		t.Fatalf("info = %+v", info)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !info.Built.Equal(want) {
		t.Errorf("Built = %v, want %v", info.Built, want)
	}
}

func TestGetIgnoresBadBuildTime(t *testing.T) {
	stamp(t, "dev", "x", "yesterday")
	// vcs.time may still fill it in; it must never come from the bad stamp.
	if info := Get(); !info.Built.IsZero() && info.Built.Year() < 2000 {
		t.Errorf("Built = %v", info.Built)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"bare", Info{Version: "dev"}, "dev"},
		{"commit", Info{Version: "1.0.0", Commit: "abc1234"}, "1.0.0-abc1234"},
		{"dirty", Info{Version: "1.0.0", Commit: "abc1234", Modified: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfoLong(t *testing.T) {
	i := Info{Version: "1.0.0", Built: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	if got := i.Long(); got != "1.0.0 (built 2026-01-02)" {
		t.Errorf("Long() = %q", got)
	}
	if got := (Info{Version: "dev"}).Long(); got != "dev" {
		t.Errorf("Long() = %q", got)
	}
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "1.0.0"}, true},
		{Info{Version: "1.0.0-dirty"}, false},
		{Info{Version: "1.0.0", Modified: true}, false},
	}
	for _, tt := range tests {
		if got := tt.info.IsRelease(); got != tt.want {
			t.Errorf("%+v IsRelease() = %v, want %v", tt.info, got, tt.want)
		}
	}
}
