// Package version carries build-time version information, stamped via
// -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

var (
	// GitVersion is the semantic version, e.g. v0.3.1.
	GitVersion = "v0.0.0-master+$Format:%h$"
	// GitCommit is the SHA1, output of $(git rev-parse HEAD).
	GitCommit = "$Format:%H$"
	// BuildDate is the build timestamp in ISO8601 format.
	BuildDate = "1970-01-01T00:00:00Z"
)

// Info holds the versioning information of a weft binary.
type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Compiler   string `json:"compiler"`
	Platform   string `json:"platform"`
}

// String returns the short version string.
func (i Info) String() string { return i.GitVersion }

// Get returns the version information of the running binary.
func Get() Info {
	return Info{
		GitVersion: GitVersion,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Compiler:   runtime.Compiler,
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
