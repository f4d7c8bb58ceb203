// Package version provides build and version information for cbsh.
package version

import (
	"fmt"
	"runtime"
)

// Title is the product name shown in the shell banner.
const Title = "Crossbar.io Fabric Shell"

// Build information set at compile time via ldflags.
var (
	// Version is the semantic version of the application.
	Version = "dev"
	// Commit is the git commit SHA.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// Info contains all version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a formatted version string.
func (i Info) String() string {
	return fmt.Sprintf("cbsh %s (%s) built on %s with %s for %s",
		i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}

// Banner returns the product title with its version.
func (i Info) Banner() string {
	return fmt.Sprintf("%s v%s", Title, i.Version)
}

// Short returns a short version string.
func (i Info) Short() string {
	return fmt.Sprintf("cbsh %s", i.Version)
}
