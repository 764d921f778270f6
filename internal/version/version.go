// Package version exposes the build version of the binaries.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/ndewijer/Yield-Bank-Backend/internal/version.Version=v1.2.3".
var Version = "dev"
