// Package version exposes build metadata of the mip-core binaries.
//
// Version, Commit and BuildTime are injected with -ldflags at release time.
package version
