package preparer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"

	"github.com/mip-org/mip-core/internal/domain/run"
	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/repository/state"
)

// errPrepareRunning indicates that another mip-prepare owns the output directory.
var errPrepareRunning = errors.New("another preparation is running in this output directory")

// takeMarker writes this run's marker, replacing a stale one.
func (p *preparer) takeMarker(ctx context.Context) error {
	logger.Info(ctx, "Checking for the presence of a run marker")

	existing, err := p.markers.Load(ctx)

	switch {
	case err == nil:
		if p.alive(existing) {
			return fmt.Errorf("pid %d, run %s: %w", existing.PID, existing.RunID, errPrepareRunning)
		}

		logger.InfoKV(ctx, "The run marker is stale, replacing it", "pid", existing.PID, "run", existing.RunID)
	case errors.Is(err, state.ErrNotFound):
		logger.Debug(ctx, "Run marker not found, continuing")
	default:
		logger.WarnKV(ctx, "Unable to read run marker, replacing it", "error", err)
	}

	pid := os.Getpid()

	return p.markers.Save(ctx, &run.Marker{
		PID:        pid,
		Executable: executableOf(pid),
		RunID:      p.runID,
		Started:    p.now().UTC(),
	})
}

// processAlive looks the marker's PID up in the process table. A PID now used
// by a different executable counts as gone.
func processAlive(marker *run.Marker) bool {
	process, err := ps.FindProcess(marker.PID)
	if err != nil || process == nil {
		return false
	}

	return marker.Executable == "" || process.Executable() == marker.Executable
}

// executableOf returns the process table name of pid, empty when unknown.
func executableOf(pid int) string {
	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return ""
	}

	return process.Executable()
}
