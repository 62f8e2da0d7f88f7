package tester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/manifest"
	"github.com/mip-org/mip-core/internal/version"
)

// anyArchitecture marks packages that run everywhere.
const anyArchitecture = "any"

var (
	// errBadHTTPStatus is returned when the index download does not answer 200.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errTestTimeout is returned when MATLAB exceeds the test timeout.
	errTestTimeout = errors.New("test timed out")
	// errTestsFailed is returned when at least one package failed.
	errTestsFailed = errors.New("some packages failed")
)

// Result is the outcome of one package test.
type Result struct {
	Package string
	Version string
	Err     error
}

// Passed reports whether the package passed.
func (r Result) Passed() bool {
	return r.Err == nil
}

// runFunc runs the test script found in workDir with MIP_DIR set to mipDir.
type runFunc func(ctx context.Context, workDir, mipDir string) error

// tester downloads the published index and tests the matching packages.
type tester struct {
	cfg    *config.Config
	opts   *Options
	client *http.Client
	run    runFunc
}

func newTester(cfg *config.Config, opts *Options) *tester {
	t := &tester{
		cfg:    cfg,
		opts:   opts,
		client: &http.Client{},
	}
	t.run = t.runMatlab

	return t
}

// Run tests every matching package and returns one result per package.
func (t *tester) Run(ctx context.Context) ([]Result, error) {
	logger.InfoKV(ctx, "Downloading package index", "url", t.cfg.IndexURL)

	idx, err := t.fetchIndex(ctx)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Downloaded index",
		"packages", len(idx.Packages),
		"last_updated", idx.LastUpdated)

	packages := t.matching(idx.Packages)

	logger.InfoKV(ctx, "Filtered packages",
		"architecture", t.cfg.Architecture,
		"matching", len(packages))

	if len(packages) == 0 {
		logger.Info(ctx, "No packages to test")

		return nil, nil
	}

	results := make([]Result, 0, len(packages))
	failed := 0

	for i, doc := range packages {
		res := Result{
			Package: doc.Text("name", "unknown"),
			Version: doc.Text("version", "unknown"),
		}

		pkgCtx := logger.WithKV(ctx, "package", res.Package)
		logger.InfoKV(pkgCtx, "Testing package", "n", i+1, "of", len(packages), "version", res.Version)

		if res.Err = t.testPackage(pkgCtx, res.Package); res.Err != nil {
			logger.ErrorKV(pkgCtx, "Test failed", "error", res.Err)

			failed++
		} else {
			logger.Info(pkgCtx, "Test passed")
		}

		results = append(results, res)
	}

	logger.InfoKV(ctx, "Test summary",
		"tested", len(results),
		"passed", len(results)-failed,
		"failed", failed)

	if failed > 0 {
		return results, fmt.Errorf("%d of %d: %w", failed, len(results), errTestsFailed)
	}

	return results, nil
}

// matching keeps packages built for the configured architecture or for any.
func (t *tester) matching(packages []manifest.Document) []manifest.Document {
	var out []manifest.Document

	for _, doc := range packages {
		if t.opts.Package != "" && doc.Text("name", "") != t.opts.Package {
			continue
		}

		arch := doc.Text("architecture", doc.Text("platform_tag", anyArchitecture))
		if arch == t.cfg.Architecture || arch == anyArchitecture {
			out = append(out, doc)
		}
	}

	return out
}

// testPackage runs the MATLAB cycle for name in a fresh temporary directory.
func (t *tester) testPackage(ctx context.Context, name string) error {
	workDir, err := os.MkdirTemp("", "mip_test_"+name+"_")
	if err != nil {
		return fmt.Errorf("create test directory: %w", err)
	}

	defer func() {
		if removeErr := os.RemoveAll(workDir); removeErr != nil {
			logger.WarnKV(ctx, "Unable to remove test directory", "dir", workDir, "error", removeErr)
		}
	}()

	mipDir := filepath.Join(workDir, "mip")
	if err = os.Mkdir(mipDir, 0o755); err != nil {
		return fmt.Errorf("create MIP_DIR: %w", err)
	}

	script, err := WriteScript(workDir, name)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Created test script", "path", script, "mip_dir", mipDir)

	return t.run(ctx, workDir, mipDir)
}

// runMatlab runs "matlab -batch" on the test script within the test timeout.
func (t *tester) runMatlab(ctx context.Context, workDir, mipDir string) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.TestTimeout)
	defer cancel()

	matlab := t.opts.Matlab
	if matlab == "" {
		matlab = "matlab"
	}

	batch := BatchCommand(workDir)
	logger.InfoKV(ctx, "Running MATLAB", "command", batch, "mip_dir", mipDir)

	//nolint:gosec // The executable is operator supplied.
	cmd := exec.CommandContext(ctx, matlab, "-batch", batch)
	cmd.Env = append(os.Environ(), "MIP_DIR="+mipDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", errTestTimeout, t.cfg.TestTimeout)
	case err != nil:
		return fmt.Errorf("matlab: %w", err)
	}

	return nil
}

// fetchIndex downloads and decodes the published index within the index timeout.
func (t *tester) fetchIndex(ctx context.Context) (*manifest.Index, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.IndexTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.IndexURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download index: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", t.cfg.IndexURL, response.Status, errBadHTTPStatus)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	return manifest.ParseIndex(data)
}
