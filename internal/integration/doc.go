// Package integration runs the mip-prepare, mip-bundle and mip-index
// workflows together against a MinIO container.
package integration
