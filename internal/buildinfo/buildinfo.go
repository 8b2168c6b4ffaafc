// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/chiahsuan/eatwhat-linebot-go/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/chiahsuan/eatwhat-linebot-go/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/chiahsuan/eatwhat-linebot-go/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Short returns a compact human-readable version marker, e.g. "v1.2.0 (a1b2c3d)".
// Returns "dev" when no version was injected.
func Short() string {
	if Version == "" {
		return "dev"
	}
	if len(Commit) >= 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}
