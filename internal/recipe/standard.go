package recipe

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mip-org/mip-core/internal/acquire"
	"github.com/mip-org/mip-core/internal/domain/wheel"
	"github.com/mip-org/mip-core/internal/layout"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/manifest"
	"github.com/mip-org/mip-core/internal/symbols"
)

const fetchDirName = "source"

// Standard builds a package entirely from its definition.
type Standard struct {
	def *Definition
}

// NewStandard creates the declarative recipe.
func NewStandard(def *Definition) *Standard {
	return &Standard{def: def}
}

// Acquire fetches the source, removes prebuilt binaries, applies patches and
// runs the build command.
func (s *Standard) Acquire(ctx context.Context, b *Build) error {
	src := s.def.Source
	b.FetchDir = filepath.Join(b.WorkDir, fetchDirName)

	var err error

	if src.Git != "" {
		err = acquire.Clone(ctx, s.def.Expand(src.Git), b.FetchDir)
	} else {
		err = acquire.DownloadZip(ctx, b.HTTPClient, s.def.Expand(src.Zip), b.FetchDir)
	}

	if err != nil {
		return err
	}

	b.RemovedBinaries, err = acquire.RemoveNativeBinaries(ctx, b.FetchDir, acquire.NativeBinaryPatterns)
	if err != nil {
		return err
	}

	for _, patch := range src.Patches {
		logger.InfoKV(ctx, "Patching file", "file", patch.File)

		if err = acquire.PatchFile(filepath.Join(b.FetchDir, patch.File), patch.Old, patch.New); err != nil {
			return err
		}
	}

	if src.Build != "" {
		started := time.Now()

		if err = acquire.RunBuild(ctx, b.FetchDir, src.Build); err != nil {
			return err
		}

		b.CompileDuration = time.Since(started)
	}

	for _, expected := range src.Expect {
		if err = acquire.RequireFile(filepath.Join(b.FetchDir, expected)); err != nil {
			return err
		}
	}

	b.SourceDir = filepath.Join(b.FetchDir, s.def.Expand(src.Subdir))

	return acquire.RequireFile(b.SourceDir)
}

// Layout copies extra files, moves the source into place and writes the path scripts.
func (s *Standard) Layout(ctx context.Context, b *Build) error {
	lay := s.def.Layout
	target := s.def.Target()

	for _, name := range lay.CopyFiles {
		dst := filepath.Join(b.StagedDir, filepath.Base(name))
		if err := acquire.CopyFile(filepath.Join(b.FetchDir, name), dst); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}

	b.PackageDir = filepath.Join(b.StagedDir, target)

	logger.DebugKV(ctx, "Moving source into place", "from", b.SourceDir, "to", b.PackageDir)

	if err := acquire.Move(b.SourceDir, b.PackageDir); err != nil {
		return err
	}

	for _, asset := range lay.Assets {
		if err := acquire.CopyFile(filepath.Join(s.def.Dir, asset), filepath.Join(b.StagedDir, filepath.Base(asset))); err != nil {
			return fmt.Errorf("copy asset %s: %w", asset, err)
		}
	}

	for name, contents := range lay.Files {
		if err := layout.WriteText(filepath.Join(b.StagedDir, name), contents); err != nil {
			return err
		}
	}

	if lay.Scripts == ScriptsLoadUnload {
		return layout.WriteLoadUnload(b.StagedDir, target, layout.LoadOptions{
			Subdirs:       lay.Subdirs,
			AddAllSubdirs: lay.AddAllSubdirs,
		})
	}

	return layout.WriteSetup(b.StagedDir, target, layout.SetupOptions{
		Subdirs:     lay.Subdirs,
		RunStartup:  lay.RunStartup,
		StartupFile: lay.StartupFile,
	})
}

// CollectSymbols scans the package directory the way the definition asks.
func (s *Standard) CollectSymbols(ctx context.Context, b *Build) error {
	cfg := s.def.Symbols

	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	dirs := make([]string, 0, len(paths))
	for _, p := range paths {
		dirs = append(dirs, filepath.Join(b.PackageDir, p))
	}

	switch cfg.Mode {
	case SymbolsExtensions:
		b.Symbols = symbols.WithExtensions(dirs[0], cfg.Extensions)
	case SymbolsRecursive:
		b.Symbols = symbols.Recursive(dirs[0], cfg.Exclude)
	case SymbolsMulti:
		b.Symbols = symbols.MultiplePaths(dirs...)
	default:
		b.Symbols = symbols.TopLevel(dirs[0])
	}

	logger.InfoKV(ctx, "Collected exposed symbols", "count", len(b.Symbols))

	return nil
}

// WriteManifest writes mip.json into the staged directory.
func (s *Standard) WriteManifest(_ context.Context, b *Build, stamp Stamp) error {
	m := s.def.Manifest(b.PlatformTag)
	m.ExposedSymbols = append([]string{}, b.Symbols...)
	m.Timestamp = manifest.Timestamp(stamp.Finished)
	m.PrepareDuration = manifest.Seconds(stamp.PrepareDuration)
	m.CompileDuration = manifest.Seconds(b.CompileDuration)

	if stamp.MHLURL != "" {
		url := stamp.MHLURL
		m.MHLURL = &url
	}

	return manifest.Write(filepath.Join(b.StagedDir, wheel.ManifestFilename), m)
}
