// Package version holds the build version of cinterop.
package version

import "runtime"

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X cinterop/internal/version.Version=1.0.0 -X cinterop/internal/version.Commit=abc123"
var (
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// BuildInfo is the machine-readable form printed by "cinterop version --format json"
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the current build information
func Get() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Info returns the version with an abbreviated commit when one is known
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	info := Get()
	return "cinterop version " + info.Version + "\n" +
		"Commit: " + info.Commit + "\n" +
		"Built: " + info.BuildDate + "\n" +
		"Go: " + info.GoVersion + " " + info.Platform
}
