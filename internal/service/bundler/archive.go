package bundler

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Archive zips the regular files under dir into outputPath with deflate
// compression. Entry names are slash-separated paths relative to dir; empty
// directories are not recorded.
func Archive(dir, outputPath string) (err error) {
	zipFile, err := os.Create(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}

		if err != nil {
			_ = os.Remove(outputPath)
		}
	}()

	zipWriter := zip.NewWriter(zipFile)

	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", path, statErr)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		relPath, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", path, relErr)
		}

		return addFile(zipWriter, path, filepath.ToSlash(relPath), info)
	})
	if walkErr != nil {
		return fmt.Errorf("archive %s: %w", dir, walkErr)
	}

	return nil
}

func addFile(zipWriter *zip.Writer, path, name string, info fs.FileInfo) (err error) {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create file header: %w", err)
	}

	header.Name = name
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}

	src, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(writer, src); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}

	return nil
}
