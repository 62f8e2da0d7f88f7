package wheel

import (
	"strings"
)

const (
	// ArchiveExtension is appended to a wheel name to form the archive file name.
	ArchiveExtension = ".mhl"
	// SidecarSuffix is appended to an archive file name to form its metadata sidecar.
	SidecarSuffix = ".mip.json"
	// StagedSuffix is appended to a wheel name to form the staged directory name.
	StagedSuffix = ".dir"
	// ManifestFilename is the manifest inside every staged directory.
	ManifestFilename = "mip.json"
)

// Name identifies one build of a package for one set of compatibility tags.
type Name struct {
	// Package is the package name.
	Package string
	// Version is the upstream version, e.g. "3.54" or "unspecified".
	Version string
	// MatlabTag is the interpreter compatibility tag.
	MatlabTag string
	// ABITag is the binary interface tag.
	ABITag string
	// PlatformTag is the CPU platform tag.
	PlatformTag string
}

// String returns "{name}-{version}-{matlab}-{abi}-{platform}".
func (n Name) String() string {
	return strings.Join([]string{n.Package, n.Version, n.MatlabTag, n.ABITag, n.PlatformTag}, "-")
}

// ArchiveFile returns the archive file name.
func (n Name) ArchiveFile() string {
	return n.String() + ArchiveExtension
}

// SidecarFile returns the metadata sidecar file name.
func (n Name) SidecarFile() string {
	return SidecarFor(n.ArchiveFile())
}

// StagedDir returns the staged directory name.
func (n Name) StagedDir() string {
	return n.String() + StagedSuffix
}

// SidecarFor returns the sidecar name of an archive file name.
func SidecarFor(archive string) string {
	return archive + SidecarSuffix
}

// FromStagedDir strips StagedSuffix from a staged directory name.
// The second result is false when the name does not carry the suffix.
func FromStagedDir(dir string) (string, bool) {
	if !strings.HasSuffix(dir, StagedSuffix) || dir == StagedSuffix {
		return "", false
	}

	return strings.TrimSuffix(dir, StagedSuffix), true
}

// ArchiveFromSidecar strips SidecarSuffix from a sidecar file name.
func ArchiveFromSidecar(sidecar string) (string, bool) {
	if !strings.HasSuffix(sidecar, SidecarSuffix) {
		return "", false
	}

	return strings.TrimSuffix(sidecar, SidecarSuffix), true
}
