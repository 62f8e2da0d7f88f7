// Package preparer implements mip-prepare: it builds every eligible package
// definition into a staged <wheel>.dir directory with its mip.json manifest.
//
// Packages are handled one at a time. A package whose published manifest
// already matches its definition is skipped, and the first failure aborts
// the run.
package preparer
