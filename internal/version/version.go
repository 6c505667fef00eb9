// Package version exposes the build version injected at link time.
package version

// version is set via -ldflags at build time.
var version string

// Value returns the build version, or a development placeholder.
func Value() string {
	if version == "" {
		return "v0.0.0-dev"
	}
	return version
}
