package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mip-org/mip-core/internal/logger"
)

// NativeBinaryPatterns match prebuilt binaries that are never shipped from upstream sources.
//
//nolint:gochecknoglobals // Fixed pattern list.
var NativeBinaryPatterns = []string{
	"**/*.mexa64",
	"**/*.mexmaci64",
	"**/*.mexmaca64",
	"**/*.mexw64",
	"**/*.mexw32",
	"**/*.dll",
	"**/*.so",
	"**/*.dylib",
	"**/*.o",
	"**/*.obj",
	"**/*.a",
	"**/*.lib",
}

var (
	// ErrMissingArtifact is returned when an expected file or directory is absent.
	ErrMissingArtifact = errors.New("expected artifact not found")
	// ErrPatchNotApplicable is returned when the text to replace is not in the file.
	ErrPatchNotApplicable = errors.New("patch target not found")
	// errBadPattern is returned for malformed glob patterns.
	errBadPattern = errors.New("invalid glob pattern")
)

// RemoveNativeBinaries deletes every file under root matching one of patterns
// and returns the removed paths relative to root.
func RemoveNativeBinaries(ctx context.Context, root string, patterns []string) ([]string, error) {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%q: %w", pattern, errBadPattern)
		}
	}

	var removed []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		for _, pattern := range patterns {
			if matched, matchErr := doublestar.Match(pattern, rel); matchErr == nil && matched {
				removed = append(removed, rel)

				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	for _, rel := range removed {
		logger.WarnKV(ctx, "Removing prebuilt binary", "path", rel)

		if err = os.Remove(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			return nil, fmt.Errorf("remove %s: %w", rel, err)
		}
	}

	return removed, nil
}

// RequireFile fails with ErrMissingArtifact when path does not exist.
func RequireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrMissingArtifact)
		}

		return fmt.Errorf("stat %s: %w", path, err)
	}

	return nil
}

// PatchFile replaces every occurrence of old with replacement in path.
func PatchFile(path, old, replacement string) error {
	if err := RequireFile(path); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	text := string(contents)
	if !strings.Contains(text, old) {
		return fmt.Errorf("%q in %s: %w", old, path, ErrPatchNotApplicable)
	}

	text = strings.ReplaceAll(text, old, replacement)

	if err = os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Move renames src to dst, creating the parent of dst.
// It falls back to copy and delete when src and dst are on different devices.
func Move(src, dst string) error {
	if err := RequireFile(src); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), dirPermissions); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := CopyTree(src, dst); err != nil {
		return err
	}

	return os.RemoveAll(src)
}

// CopyTree copies a file or a directory tree from src to dst.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", src, ErrMissingArtifact)
		}

		return err
	}

	if !info.IsDir() {
		return CopyFile(src, dst)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		if entry.IsDir() {
			return os.MkdirAll(target, dirPermissions)
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			link, linkErr := os.Readlink(path)
			if linkErr != nil {
				return linkErr
			}

			return os.Symlink(link, target)
		}

		return CopyFile(path, target)
	})
}

// CopyFile copies one regular file, keeping its permission bits.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", src, ErrMissingArtifact)
		}

		return err
	}

	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(dst), dirPermissions); err != nil {
		return err
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)

	return err
}
