// Package run contains the marker a running mip-prepare leaves in its output directory.
package run
