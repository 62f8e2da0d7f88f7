// Package indexer implements mip-index: it lists the published metadata
// sidecars in the bucket and writes index.json and packages.html for the
// package index site.
//
// Sidecars that cannot be downloaded or parsed are logged and left out;
// they never fail the run.
package indexer
