package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/mip-org/mip-core/internal/logger"
)

// ErrBuildFailed is returned when a build command exits with a non-zero status.
var ErrBuildFailed = errors.New("build command failed")

// RunBuild runs a POSIX shell command in dir and waits for it to finish.
// Extra environment entries in KEY=VALUE form override the inherited ones.
func RunBuild(ctx context.Context, dir, command string, env ...string) error {
	logger.InfoKV(ctx, "Running build command", "dir", dir, "command", command)

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "build")
	if err != nil {
		return fmt.Errorf("parse build command: %w", err)
	}

	environ := append(os.Environ(), env...)

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(environ...)),
		interp.StdIO(nil, os.Stdout, os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("create interpreter: %w", err)
	}

	if err = runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return fmt.Errorf("%w: %q exited with status %d", ErrBuildFailed, command, int(exitStatus))
		}

		return fmt.Errorf("%w: %q: %w", ErrBuildFailed, command, err)
	}

	return nil
}
