package acquire

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mip-org/mip-core/internal/logger"
	"github.com/mip-org/mip-core/internal/version"
)

const (
	dirPermissions os.FileMode = 0o755
)

var (
	// ErrBadHTTPStatus is returned for any non-2xx download response.
	ErrBadHTTPStatus = errors.New("unexpected http status")
	// errUnsafePath is returned for archive members that escape the destination.
	errUnsafePath = errors.New("archive member escapes destination")
)

// DownloadZip downloads url into a temporary file and extracts every member into dest.
// The temporary file is removed whether or not extraction succeeds.
func DownloadZip(ctx context.Context, client *http.Client, url, dest string) error {
	logger.InfoKV(ctx, "Downloading archive", "url", url)

	tmpPath, err := downloadToTemp(ctx, client, url)
	if err != nil {
		return err
	}

	defer func() {
		_ = os.Remove(tmpPath)
	}()

	logger.DebugKV(ctx, "Extracting archive", "dest", dest)

	return Extract(tmpPath, dest)
}

func downloadToTemp(ctx context.Context, client *http.Client, url string) (tmpPath string, err error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%s, %s: %w", url, resp.Status, ErrBadHTTPStatus)
	}

	tmpFile, err := os.CreateTemp("", "mip-download-*.zip")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	tmpPath = tmpFile.Name()

	defer func() {
		if closeErr := tmpFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}

		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmpFile, resp.Body); err != nil {
		return "", fmt.Errorf("save %s: %w", url, err)
	}

	return tmpPath, nil
}

// Extract unpacks every member of the zip file at zipPath into dest.
func Extract(zipPath, dest string) (err error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	if err = os.MkdirAll(absDest, dirPermissions); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, file := range reader.File {
		destPath := filepath.Join(absDest, filepath.FromSlash(file.Name))

		rel, relErr := filepath.Rel(absDest, destPath)
		if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%s: %w", file.Name, errUnsafePath)
		}

		if file.FileInfo().IsDir() {
			if err = os.MkdirAll(destPath, dirPermissions); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			continue
		}

		if err = os.MkdirAll(filepath.Dir(destPath), dirPermissions); err != nil {
			return fmt.Errorf("create parent directory: %w", err)
		}

		if err = extractFile(file, destPath); err != nil {
			return fmt.Errorf("extract %s: %w", file.Name, err)
		}
	}

	return nil
}

func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	destFile, err := os.OpenFile(filepath.Clean(destPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // Archives come from upstream URLs named in package definitions.
	_, err = io.Copy(destFile, rc)

	return err
}
