package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags "-X github.com/kbukum/voxboard/version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info describes the running binary. It is served on /info and printed by
// the dictation CLI's -version flag.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	Built     time.Time `json:"built,omitzero"`
	GoVersion string    `json:"go_version"`
	Modified  bool      `json:"modified,omitempty"`
}

// Get assembles Info from the link-time variables, falling back to the VCS
// stamps the toolchain embeds.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.Built = t.UTC()
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortCommit(s.Value)
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "vcs.time":
			if info.Built.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.Built = t.UTC()
				}
			}
		}
	}
	return info
}

// IsRelease reports whether the version looks like a tagged build.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !i.Modified && !strings.HasSuffix(i.Version, "-dirty")
}

// String renders "<version>[-<commit>][-dirty]".
func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Modified {
		s += "-dirty"
	}
	return s
}

// Long adds the build date to String.
func (i Info) Long() string {
	if i.Built.IsZero() {
		return i.String()
	}
	return fmt.Sprintf("%s (built %s)", i.String(), i.Built.Format("2006-01-02"))
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
