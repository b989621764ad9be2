package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information, set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the info for the given program name.
// Tagged versions are normalized, so "v1.2.0" and "1.2" both print as 1.2.0.
func (i Info) String(program string) string {
	v := "dev"
	if parsed, err := semver.NewVersion(i.Version); err == nil {
		v = parsed.String()
	}
	return fmt.Sprintf("%s %s (commit %s, built %s)", program, v, i.Short(), i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// GoSatisfies reports whether the running toolchain is at least the given
// go directive version (e.g. "1.24.6" from a go.mod file). Development
// toolchains that do not carry a release version are accepted.
func GoSatisfies(required string) (bool, error) {
	return goVersionSatisfies(runtime.Version(), required)
}

func goVersionSatisfies(toolchain, required string) (bool, error) {
	constraint, err := semver.NewConstraint(">= " + required)
	if err != nil {
		return false, fmt.Errorf("invalid go version %q: %w", required, err)
	}

	raw := strings.TrimPrefix(toolchain, "go")
	if i := strings.IndexAny(raw, " +"); i >= 0 {
		raw = raw[:i]
	}
	current, err := semver.NewVersion(raw)
	if err != nil {
		return true, nil
	}
	// Go release candidates ("1.25rc1") compare as prereleases; accept them.
	if current.Prerelease() != "" {
		stripped, _ := current.SetPrerelease("")
		current = &stripped
	}
	return constraint.Check(current), nil
}
