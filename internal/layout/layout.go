package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// SetupFilename is the single-script layout.
	SetupFilename = "setup.m"
	// LoadFilename adds the package to the MATLAB path.
	LoadFilename = "load_package.m"
	// UnloadFilename removes the package from the MATLAB path.
	UnloadFilename = "unload_package.m"
	// DefaultStartupFile is run by setup.m when startup is requested.
	DefaultStartupFile = "startup.m"

	scriptPermissions os.FileMode = 0o644
)

// ErrConflictingSubdirs is returned when AddAllSubdirs is combined with an explicit list.
var ErrConflictingSubdirs = errors.New("cannot combine add_all_subdirs with an explicit subdirectory list")

// SetupOptions configures setup.m.
type SetupOptions struct {
	// Subdirs are added after the main directory, in order.
	Subdirs []string
	// RunStartup appends a check-and-run of StartupFile inside the package directory.
	RunStartup bool
	// StartupFile defaults to DefaultStartupFile.
	StartupFile string
}

// LoadOptions configures the load/unload pair.
type LoadOptions struct {
	// Subdirs are added after the main directory and removed in reverse order.
	Subdirs []string
	// AddAllSubdirs enumerates every directory under <root>/<name>.
	AddAllSubdirs bool
}

// WriteSetup writes <root>/setup.m for package directory <root>/<name>.
func WriteSetup(root, name string, opts SetupOptions) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%% Add %s to the MATLAB path\n", name)
	writeMainPath(&b, name)
	fmt.Fprintf(&b, "addpath(%s_path);\n", name)

	for _, subdir := range opts.Subdirs {
		fmt.Fprintf(&b, "%% Add %s/%s to the path\n", name, subdir)
		writeSubdirPath(&b, name, subdir)
		fmt.Fprintf(&b, "addpath(%s_path);\n", subdir)
	}

	if opts.RunStartup {
		startup := opts.StartupFile
		if startup == "" {
			startup = DefaultStartupFile
		}

		fmt.Fprintf(&b, "startup_file = fullfile(%s_path, '%s');\n", name, startup)
		b.WriteString("if exist(startup_file, 'file')\n")
		b.WriteString("    run(startup_file);\n")
		b.WriteString("end\n")
	}

	return writeScript(filepath.Join(root, SetupFilename), b.String())
}

// WriteLoadUnload writes <root>/load_package.m and <root>/unload_package.m.
// Unload removes subdirectories in reverse order and the main directory last.
func WriteLoadUnload(root, name string, opts LoadOptions) error {
	subdirs := opts.Subdirs

	if opts.AddAllSubdirs {
		if opts.Subdirs != nil {
			return ErrConflictingSubdirs
		}

		var err error

		subdirs, err = AllSubdirs(filepath.Join(root, name))
		if err != nil {
			return err
		}
	}

	var load strings.Builder

	fmt.Fprintf(&load, "%% Add %s to the MATLAB path\n", name)
	writeMainPath(&load, name)
	fmt.Fprintf(&load, "addpath(%s_path);\n", name)

	for _, subdir := range subdirs {
		fmt.Fprintf(&load, "%% Add %s/%s to the path\n", name, subdir)
		writeSubdirPath(&load, name, subdir)
		fmt.Fprintf(&load, "addpath(%s_path);\n", subdir)
	}

	var unload strings.Builder

	fmt.Fprintf(&unload, "%% Remove %s from the MATLAB path\n", name)
	writeMainPath(&unload, name)

	for i := len(subdirs) - 1; i >= 0; i-- {
		fmt.Fprintf(&unload, "%% Remove %s/%s from the path\n", name, subdirs[i])
		writeSubdirPath(&unload, name, subdirs[i])
		fmt.Fprintf(&unload, "rmpath(%s_path);\n", subdirs[i])
	}

	fmt.Fprintf(&unload, "rmpath(%s_path);\n", name)

	if err := writeScript(filepath.Join(root, LoadFilename), load.String()); err != nil {
		return err
	}

	return writeScript(filepath.Join(root, UnloadFilename), unload.String())
}

// AllSubdirs lists every directory below dir in walk order, relative and
// slash separated.
func AllSubdirs(dir string) ([]string, error) {
	subdirs := []string{}

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !entry.IsDir() || path == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		subdirs = append(subdirs, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list subdirectories of %s: %w", dir, err)
	}

	return subdirs, nil
}

// WriteText writes a small generated file such as compile.m.
func WriteText(path, contents string) error {
	return writeScript(path, contents)
}

func writeMainPath(b *strings.Builder, name string) {
	fmt.Fprintf(b, "%s_path = fullfile(fileparts(mfilename('fullpath')), '%s');\n", name, name)
}

func writeSubdirPath(b *strings.Builder, name, subdir string) {
	fmt.Fprintf(b, "%s_path = fullfile(%s_path, '%s');\n", subdir, name, subdir)
}

func writeScript(path, contents string) error {
	if err := os.WriteFile(filepath.Clean(path), []byte(contents), scriptPermissions); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	return nil
}
