package symbols

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MFileExtension is the only extension recognized by default.
	MFileExtension = ".m"

	packagePrefix = '+'
	classPrefix   = '@'
)

// DefaultExtensions lists the file extensions recognized when none are given.
func DefaultExtensions() []string {
	return []string{MFileExtension}
}

// Decode maps a file or directory name to the symbol it exposes.
// A name ending with one of exts loses that suffix (first match wins).
// Otherwise a leading '+' or '@' is removed. Anything else passes through.
// A nil exts means DefaultExtensions.
func Decode(name string, exts []string) string {
	if exts == nil {
		exts = DefaultExtensions()
	}

	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}

	if isMarkedDir(name) {
		return name[1:]
	}

	return name
}

// TopLevel collects the symbols of the immediate children of dir.
// Raw entry names are sorted before decoding and the result is not re-sorted.
func TopLevel(dir string) []string {
	return WithExtensions(dir, DefaultExtensions())
}

// WithExtensions is TopLevel with a custom set of file extensions,
// for packages that expose MEX sources alongside M-files.
func WithExtensions(dir string, exts []string) []string {
	symbols := []string{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return symbols
	}

	// Raw names are ordered before decoding.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		name := entry.Name()

		info, statErr := os.Stat(filepath.Join(dir, name))
		if statErr != nil {
			continue
		}

		switch {
		case info.Mode().IsRegular():
			if ext, ok := matchExtension(name, exts); ok {
				symbols = append(symbols, strings.TrimSuffix(name, ext))
			}
		case info.IsDir() && isMarkedDir(name):
			symbols = append(symbols, Decode(name, exts))
		}
	}

	return symbols
}

// Recursive walks dir top-down and collects symbols at every level.
// Directories whose name is in exclude are pruned before they are scanned,
// so nothing beneath them contributes. The result is sorted ascending.
func Recursive(dir string, exclude []string) []string {
	symbols := []string{}

	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}

	root := filepath.Clean(dir)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}

			// Unreadable subtrees contribute nothing.
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if path == root {
			return nil
		}

		name := entry.Name()

		if entry.IsDir() {
			if _, excluded := skip[name]; excluded {
				return filepath.SkipDir
			}

			if isMarkedDir(name) {
				symbols = append(symbols, Decode(name, nil))
			}

			return nil
		}

		if strings.HasSuffix(name, MFileExtension) {
			symbols = append(symbols, Decode(name, nil))
		}

		return nil
	})
	if err != nil {
		return []string{}
	}

	sort.Strings(symbols)

	return symbols
}

// MultiplePaths runs TopLevel on each directory in turn and sorts the
// combined result.
func MultiplePaths(dirs ...string) []string {
	symbols := []string{}

	for _, dir := range dirs {
		symbols = append(symbols, TopLevel(dir)...)
	}

	sort.Strings(symbols)

	return symbols
}

func matchExtension(name string, exts []string) (string, bool) {
	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(name, ext) {
			return ext, true
		}
	}

	return "", false
}

func isMarkedDir(name string) bool {
	return name != "" && (name[0] == packagePrefix || name[0] == classPrefix)
}
