// Package version holds the build version, set via -ldflags.
package version

// Version is overridden at link time:
//
//	go build -ldflags "-X eipconvert/internal/version.Version=v1.2.0"
var Version = "dev"
