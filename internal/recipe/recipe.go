package recipe

import (
	"context"
	"net/http"
	"time"
)

// Recipe builds one package into its staged directory.
// The preparer calls the steps in declaration order.
type Recipe interface {
	// Acquire fetches upstream code into the work directory.
	Acquire(ctx context.Context, b *Build) error
	// Layout moves the code into the staged directory and writes path scripts.
	Layout(ctx context.Context, b *Build) error
	// CollectSymbols fills b.Symbols.
	CollectSymbols(ctx context.Context, b *Build) error
	// WriteManifest writes mip.json into the staged directory.
	WriteManifest(ctx context.Context, b *Build, stamp Stamp) error
}

// PlatformResolver is implemented by recipes whose output depends on the host.
// It returns the platform tag to publish under, or an error when the host
// cannot build the package.
type PlatformResolver interface {
	ResolvePlatform(host string) (string, error)
}

// Build carries the state of one package build between recipe steps.
type Build struct {
	// Definition is the package being built.
	Definition *Definition
	// StagedDir is <output>/<wheel>.dir.
	StagedDir string
	// WorkDir is a private scratch directory removed after the build.
	WorkDir string
	// PlatformTag is the tag the package is published under.
	PlatformTag string
	// HTTPClient downloads zip sources.
	HTTPClient *http.Client

	// FetchDir is where upstream code was fetched, set by Acquire.
	FetchDir string
	// SourceDir is the part of FetchDir that becomes the package directory.
	SourceDir string
	// PackageDir is <StagedDir>/<target>, set by Layout.
	PackageDir string
	// Symbols is set by CollectSymbols.
	Symbols []string
	// CompileDuration is the time spent in the build command.
	CompileDuration time.Duration
	// RemovedBinaries lists prebuilt files deleted from the fetched tree.
	RemovedBinaries []string
}

// Stamp holds the values known only once a build has run.
type Stamp struct {
	Finished        time.Time
	PrepareDuration time.Duration
	MHLURL          string
}
