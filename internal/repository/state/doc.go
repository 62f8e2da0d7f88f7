// Package state persists the run marker of mip-prepare.
//
// The FileRepository stores and loads the marker as JSON on disk and exposes
// a Repository interface that the preparer depends on.
package state
