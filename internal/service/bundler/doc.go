// Package bundler implements mip-bundle: every staged <wheel>.dir directory is
// zipped into <wheel>.mhl and uploaded with its <wheel>.mhl.mip.json sidecar.
package bundler
