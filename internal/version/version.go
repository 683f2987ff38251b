// Package version carries build identity injected at link time.
package version

// Set via -ldflags="-X kiln/internal/version.Version=..." and friends.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Resolve returns the build info, substituting "dev" when no version
// was stamped in.
func Resolve() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

// String renders a short human-readable version, e.g. "0.3.1 (ab12cd34ef56)".
func String() string {
	info := Resolve()
	if info.Commit == "" {
		return info.Version
	}
	commit := info.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return info.Version + " (" + commit + ")"
}
