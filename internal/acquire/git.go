package acquire

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mip-org/mip-core/internal/logger"
)

const gitDirName = ".git"

// errCloneFailed is returned when git exits with a non-zero status.
var errCloneFailed = errors.New("git clone failed")

// Clone runs "git clone url dest" and strips every .git directory from the result.
func Clone(ctx context.Context, url, dest string) error {
	logger.InfoKV(ctx, "Cloning repository", "url", url, "dest", dest)

	//nolint:gosec // The URL comes from a package definition in this repository.
	cmd := exec.CommandContext(ctx, "git", "clone", url, dest)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %w", errCloneFailed, url, err)
	}

	return RemoveGitDirs(ctx, dest)
}

// RemoveGitDirs deletes every .git directory under root without descending into them.
func RemoveGitDirs(ctx context.Context, root string) error {
	logger.DebugKV(ctx, "Removing .git directories", "root", root)

	var removed []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !entry.IsDir() || entry.Name() != gitDirName {
			return nil
		}

		removed = append(removed, path)

		return filepath.SkipDir
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	for _, dir := range removed {
		if err = os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}

	return nil
}
