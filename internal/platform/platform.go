// Package platform maps the running host to a MIP platform tag.
package platform

import "runtime"

const (
	// Any marks a package that runs on every platform.
	Any = "any"
	// LinuxX8664 is the tag of 64-bit x86 Linux hosts.
	LinuxX8664 = "linux_x86_64"
)

// CurrentTag returns the platform tag of the running host.
func CurrentTag() string {
	return Tag(runtime.GOOS, runtime.GOARCH)
}

// Tag returns the platform tag for a GOOS/GOARCH pair.
func Tag(goos, goarch string) string {
	machine := normalizeMachine(goos, goarch)

	switch goos {
	case "linux":
		return "linux_" + machine
	case "darwin":
		switch machine {
		case "x86_64":
			return "macosx_10_9_x86_64"
		case "arm64":
			return "macosx_11_0_arm64"
		default:
			return "macosx_10_9_" + machine
		}
	case "windows":
		switch machine {
		case "x86_64":
			return "win_amd64"
		case "arm64":
			return "win_arm64"
		case "i686":
			return "win32"
		default:
			return "win_" + machine
		}
	default:
		return goos + "_" + machine
	}
}

func normalizeMachine(goos, goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		if goos == "linux" {
			return "aarch64"
		}

		return "arm64"
	case "386":
		return "i686"
	default:
		return goarch
	}
}
