// Package wheel holds the naming scheme shared by staged directories,
// archives and metadata sidecars.
package wheel
