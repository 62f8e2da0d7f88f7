package run

import (
	"time"
)

// MarkerFilename is the marker file inside the output directory.
const MarkerFilename = ".mip-prepare.run"

// Marker identifies the process currently preparing into a directory.
type Marker struct {
	// PID is the process id of the owner.
	PID int `json:"pid"`
	// Executable is the owner's executable name, as reported by the process table.
	Executable string `json:"executable"`
	// RunID is the id attached to every log line of the owning run.
	RunID string `json:"run_id"`
	// Started is when the owning run took the marker.
	Started time.Time `json:"started"`
}
