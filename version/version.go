package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

const shortCommit = 7

// Info is the build identity reported by /version and /models/info.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"git_commit,omitempty"`
	Branch    string `json:"git_branch,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified"`
	Release   bool   `json:"is_release"`
}

// Get returns the build identity. Stamped values win over the embedded VCS
// settings.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    GitCommit,
		Branch:    GitBranch,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	if len(info.Commit) > shortCommit {
		info.Commit = info.Commit[:shortCommit]
	}
	info.Release = info.Version != "dev" && !info.Modified && !strings.Contains(info.Version, "dirty")
	return info
}

// Short is the version with the commit appended, e.g. "1.4.0-abc1234".
func (i Info) Short() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Modified {
		s += "-dirty"
	}
	return s
}

// String is Short followed by the build time when known.
func (i Info) String() string {
	if i.BuildTime == "" {
		return i.Short()
	}
	return fmt.Sprintf("%s (built %s)", i.Short(), i.BuildTime)
}

// UserAgent identifies a binary on outbound HTTP requests, e.g.
// "whisperx-api/1.4.0 (go1.26.0)".
func UserAgent(binary string) string {
	info := Get()
	return fmt.Sprintf("%s/%s (%s)", binary, info.Version, info.GoVersion)
}
