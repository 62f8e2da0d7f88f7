package preparer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/domain/run"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/metrics"
	"github.com/mip-org/mip-core/internal/platform"
	"github.com/mip-org/mip-core/internal/recipe"
	"github.com/mip-org/mip-core/internal/repository/state"
)

const dirPermissions os.FileMode = 0o755

var (
	// errNoDefinitions is returned when the packages directory holds no definitions.
	errNoDefinitions = errors.New("no package definitions found")
	// errPackageNotFound is returned when --package names no definition.
	errPackageNotFound = errors.New("package not found")
)

// preparer builds package definitions into staged directories.
// It is unexported: callers should use Run, which loads settings first.
type preparer struct {
	// cfg holds directories, the public base URL and timeouts.
	cfg *config.Config
	// opts are the command-line switches.
	opts *Options
	// runID is written into the run marker.
	runID string
	// host is the platform tag of this machine.
	host string
	// client downloads zip sources and published manifests.
	client *http.Client
	// markers stores the run marker of the output directory.
	markers state.Repository
	// alive reports whether the owner of a marker is still running.
	alive func(*run.Marker) bool
	// metrics records per-package results.
	metrics *metrics.Recorder
	// now is the clock.
	now func() time.Time
}

func newPreparer(cfg *config.Config, opts *Options, runID string) *preparer {
	return &preparer{
		cfg:     cfg,
		opts:    opts,
		runID:   runID,
		host:    platform.CurrentTag(),
		client:  &http.Client{},
		markers: state.NewFileRepository(filepath.Join(cfg.PreparedDir, run.MarkerFilename)),
		alive:   processAlive,
		metrics: metrics.NewRecorder(),
		now:     time.Now,
	}
}

// Run prepares every selected definition in order and stops at the first failure.
func (p *preparer) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{}

	definitions, err := recipe.Load(p.cfg.PackagesDir)
	if err != nil {
		return report, err
	}

	if len(definitions) == 0 {
		return report, fmt.Errorf("%s: %w", p.cfg.PackagesDir, errNoDefinitions)
	}

	selected, err := p.selectDefinitions(ctx, definitions)
	if err != nil {
		return report, err
	}

	logger.InfoKV(ctx, "Found package definitions",
		"total", len(definitions),
		"selected", len(selected),
		"build_type", p.cfg.BuildType,
		"platform", p.host,
		"output_dir", p.cfg.PreparedDir)

	if !p.opts.DryRun {
		if err = os.MkdirAll(p.cfg.PreparedDir, dirPermissions); err != nil {
			return report, fmt.Errorf("create output directory: %w", err)
		}

		if err = p.takeMarker(ctx); err != nil {
			return report, err
		}

		defer func() {
			if removeErr := p.markers.Remove(ctx); removeErr != nil {
				logger.WarnKV(ctx, "Unable to remove run marker", "error", removeErr)
			}
		}()
	}

	defer p.writeMetrics(ctx)

	for _, def := range selected {
		res := p.prepare(ctx, def)
		report.Results = append(report.Results, res)

		if res.Err != nil {
			logger.ErrorKV(ctx, "Preparation failed", "package", def.Name, "error", res.Err)

			return report, fmt.Errorf("%s: %w", def.Name, res.Err)
		}
	}

	return report, nil
}

// selectDefinitions applies the --package, --release, BUILD_TYPE and platform filters.
func (p *preparer) selectDefinitions(ctx context.Context, definitions []*recipe.Definition) ([]*recipe.Definition, error) {
	var (
		selected []*recipe.Definition
		named    bool
	)

	for _, def := range definitions {
		if p.opts.Package != "" && def.Name != p.opts.Package {
			continue
		}

		if p.opts.Release != "" && def.Version != p.opts.Release {
			continue
		}

		named = true

		if !def.Eligible(p.cfg.BuildType, p.host) {
			logger.DebugKV(ctx, "Package not built here",
				"package", def.Name,
				"build_types", def.BuildTypes,
				"platforms", def.Platforms)

			continue
		}

		selected = append(selected, def)
	}

	if p.opts.Package != "" && !named {
		return nil, fmt.Errorf("%s: %w", p.opts.Package, errPackageNotFound)
	}

	return selected, nil
}

// prepare runs one definition through the workflow.
func (p *preparer) prepare(ctx context.Context, def *recipe.Definition) Result {
	ctx = logger.WithKV(ctx, "package", def.Name)
	res := Result{Package: def.Name, State: StatePending}

	r, err := recipe.For(def)
	if err != nil {
		return p.fail(ctx, res, err)
	}

	platformTag := def.PlatformTag
	if resolver, ok := r.(recipe.PlatformResolver); ok {
		if platformTag, err = resolver.ResolvePlatform(p.host); err != nil {
			return p.fail(ctx, res, err)
		}
	}

	w := def.Wheel(platformTag)
	res.Wheel = w.String()
	ctx = logger.WithKV(ctx, "wheel", res.Wheel)

	logger.Info(ctx, "Processing package")

	if !p.opts.Force {
		res.State = StateChecking
		if p.upToDate(ctx, def, w) {
			logger.Info(ctx, "Skipping, package already up to date")
			p.metrics.Skipped()

			res.State = StateSkipped

			return res
		}
	}

	if p.opts.DryRun {
		logger.InfoKV(ctx, "Would prepare package", "dir", w.StagedDir())

		res.State = StateDone

		return res
	}

	staged := filepath.Join(p.cfg.PreparedDir, w.StagedDir())
	started := p.now()

	res, err = p.build(ctx, r, res, &recipe.Build{
		Definition:  def,
		StagedDir:   staged,
		PlatformTag: platformTag,
		HTTPClient:  p.client,
	}, started)

	res.Duration = p.now().Sub(started)

	if err != nil {
		if removeErr := os.RemoveAll(staged); removeErr != nil {
			logger.WarnKV(ctx, "Unable to remove failed build", "dir", staged, "error", removeErr)
		}

		p.metrics.Failed(def.Name, res.Duration)

		return p.fail(ctx, res, err)
	}

	res.State = StateDone

	logger.InfoKV(ctx, "Package prepared", "dir", staged, "took", res.Duration)

	return res
}

// build creates a fresh staged directory and drives the recipe steps.
func (p *preparer) build(
	ctx context.Context,
	r recipe.Recipe,
	res Result,
	b *recipe.Build,
	started time.Time,
) (Result, error) {
	if _, err := os.Stat(b.StagedDir); err == nil {
		logger.InfoKV(ctx, "Removing existing directory", "dir", b.StagedDir)
	}

	if err := os.RemoveAll(b.StagedDir); err != nil {
		return res, fmt.Errorf("remove %s: %w", b.StagedDir, err)
	}

	if err := os.MkdirAll(b.StagedDir, dirPermissions); err != nil {
		return res, fmt.Errorf("create %s: %w", b.StagedDir, err)
	}

	workDir, err := os.MkdirTemp("", "mip-prepare-*")
	if err != nil {
		return res, fmt.Errorf("create work directory: %w", err)
	}

	defer func() {
		if removeErr := os.RemoveAll(workDir); removeErr != nil {
			logger.WarnKV(ctx, "Unable to remove work directory", "dir", workDir, "error", removeErr)
		}
	}()

	b.WorkDir = workDir

	steps := []struct {
		state State
		run   func(context.Context, *recipe.Build) error
	}{
		{StateAcquiring, r.Acquire},
		{StateLayingOut, r.Layout},
		{StateCollectingSymbols, r.CollectSymbols},
	}

	for _, step := range steps {
		res.State = step.state
		logger.DebugKV(ctx, "Entering state", "state", step.state)

		if err = step.run(ctx, b); err != nil {
			return res, fmt.Errorf("%s: %w", step.state, err)
		}
	}

	res.State = StateWritingManifest
	finished := p.now()

	stamp := recipe.Stamp{
		Finished:        finished,
		PrepareDuration: finished.Sub(started),
		MHLURL:          p.cfg.PublicURL(b.Definition.Wheel(b.PlatformTag).ArchiveFile()),
	}

	if err = r.WriteManifest(ctx, b, stamp); err != nil {
		return res, fmt.Errorf("%s: %w", res.State, err)
	}

	p.metrics.Prepared(b.Definition.Name, stamp.PrepareDuration, len(b.Symbols))

	return res, nil
}

func (p *preparer) fail(ctx context.Context, res Result, err error) Result {
	logger.DebugKV(ctx, "Package failed", "state", res.State)

	res.State = StateFailed
	res.Err = err

	return res
}

func (p *preparer) writeMetrics(ctx context.Context) {
	if p.opts.MetricsFile == "" {
		return
	}

	if err := p.metrics.WriteTextfile(p.opts.MetricsFile, p.now()); err != nil {
		logger.WarnKV(ctx, "Unable to write metrics", "path", p.opts.MetricsFile, "error", err)
	}
}
