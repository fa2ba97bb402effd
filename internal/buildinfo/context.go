// Package buildinfo holds build-time metadata kept apart from user configuration
package buildinfo

import (
	"fmt"
	"runtime"
)

// UnknownValue is reported for metadata not injected at build time
const UnknownValue = "unknown"

// Context contains build-time metadata set with -ldflags
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// New creates the build context
func New(version, buildDate string) *Context {
	return &Context{Version: version, BuildDate: buildDate}
}

// GetVersion returns the version or UnknownValue
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date or UnknownValue
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// UserAgent returns the User-Agent sent to the backend
func (c *Context) UserAgent(product string) string {
	return fmt.Sprintf("%s/%s (%s; %s)", product, c.GetVersion(), runtime.GOOS, runtime.GOARCH)
}

// String is the --version output
func (c *Context) String() string {
	return fmt.Sprintf("%s (built %s, %s)", c.GetVersion(), c.GetBuildDate(), runtime.Version())
}
