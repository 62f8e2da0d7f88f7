package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mip-org/mip-core/internal/domain/wheel"
	"github.com/mip-org/mip-core/internal/manifest"
	"github.com/mip-org/mip-core/internal/platform"
)

const (
	// DefinitionFilename is read from every package directory.
	DefinitionFilename = "package.yaml"
	// DefaultBuildType is assumed for definitions without build_types.
	DefaultBuildType = "standard"

	// ScriptsSetup emits setup.m.
	ScriptsSetup = "setup"
	// ScriptsLoadUnload emits load_package.m and unload_package.m.
	ScriptsLoadUnload = "load_unload"

	// SymbolsTopLevel scans the immediate children of one directory.
	SymbolsTopLevel = "top_level"
	// SymbolsExtensions is SymbolsTopLevel with custom file extensions.
	SymbolsExtensions = "extensions"
	// SymbolsRecursive walks the whole tree with exclusions.
	SymbolsRecursive = "recursive"
	// SymbolsMulti scans several directories at top level.
	SymbolsMulti = "multi"

	defaultMatlabTag = "any"
	defaultABITag    = "none"
)

var (
	// ErrInvalidDefinition wraps every definition validation failure.
	ErrInvalidDefinition = errors.New("invalid package definition")
	// ErrNoDefinition is returned for a package directory without package.yaml.
	ErrNoDefinition = errors.New("package definition not found")
	// errPackagesDirMissing is returned when the packages directory does not exist.
	errPackagesDirMissing = errors.New("packages directory not found")
)

// File is the document stored in package.yaml.
type File struct {
	Packages []*Definition `yaml:"packages"`
}

// Definition describes one installable package and how to build it.
type Definition struct {
	Name          string    `yaml:"name"`
	Description   string    `yaml:"description"`
	Version       string    `yaml:"version"`
	BuildNumber   int       `yaml:"build_number"`
	ReleaseNumber *int      `yaml:"release_number"`
	Dependencies  []string  `yaml:"dependencies"`
	Homepage      string    `yaml:"homepage"`
	Repository    string    `yaml:"repository"`
	License       *string   `yaml:"license"`
	MatlabTag     string    `yaml:"matlab_tag"`
	ABITag        string    `yaml:"abi_tag"`
	PlatformTag   string    `yaml:"platform_tag"`
	UsageExamples *[]string `yaml:"usage_examples"`

	// Recipe selects the registry entry, DefaultRecipe when empty.
	Recipe string `yaml:"recipe"`
	// BuildTypes lists the BUILD_TYPE values this package is built for.
	BuildTypes []string `yaml:"build_types"`
	// Platforms restricts the host platform tags allowed to build it.
	Platforms []string `yaml:"platforms"`

	Source  Source  `yaml:"source"`
	Layout  Layout  `yaml:"layout"`
	Symbols Symbols `yaml:"symbols"`

	// Dir is the directory the definition was loaded from.
	Dir string `yaml:"-"`
}

// Source says where upstream code comes from. Exactly one of Git and Zip is set.
// "{name}" and "{version}" are replaced in Git, Zip and Subdir.
type Source struct {
	Git string `yaml:"git"`
	Zip string `yaml:"zip"`
	// Subdir is the directory inside the fetched tree that becomes the package directory.
	Subdir string `yaml:"subdir"`
	// Patches are applied before Build.
	Patches []Patch `yaml:"patches"`
	// Build is a shell command run in the fetched tree.
	Build string `yaml:"build"`
	// Expect lists paths inside the fetched tree that must exist after Build.
	Expect []string `yaml:"expect"`
}

// Patch replaces text in a fetched file.
type Patch struct {
	File string `yaml:"file"`
	Old  string `yaml:"old"`
	New  string `yaml:"new"`
}

// Layout says how the staged directory is assembled.
type Layout struct {
	// Target is the package directory name inside the staged directory, Name when empty.
	Target string `yaml:"target"`
	// Scripts is ScriptsSetup (default) or ScriptsLoadUnload.
	Scripts       string   `yaml:"scripts"`
	Subdirs       []string `yaml:"subdirs"`
	AddAllSubdirs bool     `yaml:"add_all_subdirs"`
	RunStartup    bool     `yaml:"run_startup"`
	StartupFile   string   `yaml:"startup_file"`
	// CopyFiles are copied from the fetched tree into the staged root and must exist.
	CopyFiles []string `yaml:"copy_files"`
	// Assets are copied from the definition directory into the staged root.
	Assets []string `yaml:"assets"`
	// Files are written into the staged root verbatim.
	Files map[string]string `yaml:"files"`
}

// Symbols says how exposed symbols are collected.
type Symbols struct {
	// Mode is one of the Symbols* constants, SymbolsTopLevel when empty.
	Mode string `yaml:"mode"`
	// Paths are relative to the package directory, "." when empty.
	Paths      []string `yaml:"paths"`
	Extensions []string `yaml:"extensions"`
	Exclude    []string `yaml:"exclude"`
}

// Load reads every <dir>/*/package.yaml, ordered by directory name.
func Load(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, errPackagesDirMissing)
		}

		return nil, fmt.Errorf("read packages directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var definitions []*Definition

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		loaded, loadErr := LoadFile(filepath.Join(dir, entry.Name(), DefinitionFilename))
		if loadErr != nil {
			return nil, loadErr
		}

		definitions = append(definitions, loaded...)
	}

	return definitions, nil
}

// LoadFile reads the definitions of one package.yaml.
func LoadFile(path string) ([]*Definition, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoDefinition)
		}

		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	definitions, err := Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, def := range definitions {
		def.Dir = filepath.Dir(path)
	}

	return definitions, nil
}

// Parse decodes and validates a package.yaml document. Unknown keys are rejected.
func Parse(contents []byte) ([]*Definition, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	for _, def := range file.Packages {
		if def == nil {
			return nil, fmt.Errorf("%w: empty entry", ErrInvalidDefinition)
		}

		def.applyDefaults()

		if err := def.Validate(); err != nil {
			return nil, err
		}
	}

	return file.Packages, nil
}

func (d *Definition) applyDefaults() {
	if d.Recipe == "" {
		d.Recipe = DefaultRecipe
	}

	if d.MatlabTag == "" {
		d.MatlabTag = defaultMatlabTag
	}

	if d.ABITag == "" {
		d.ABITag = defaultABITag
	}

	if d.PlatformTag == "" {
		d.PlatformTag = platform.Any
	}

	if d.Dependencies == nil {
		d.Dependencies = []string{}
	}

	if len(d.BuildTypes) == 0 {
		d.BuildTypes = []string{DefaultBuildType}
	}

	if d.Layout.Scripts == "" {
		d.Layout.Scripts = ScriptsSetup
	}

	if d.Symbols.Mode == "" {
		d.Symbols.Mode = SymbolsTopLevel
	}
}

// Validate checks that the definition can be built.
func (d *Definition) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, d.Name, fmt.Sprintf(format, args...))
	}

	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	case strings.ContainsAny(d.Name, `/\`):
		return invalid("name must not contain path separators")
	case d.Version == "":
		return invalid("version is required")
	case (d.Source.Git == "") == (d.Source.Zip == ""):
		return invalid("exactly one of source.git and source.zip is required")
	}

	if _, err := Lookup(d.Recipe); err != nil {
		return invalid("%v", err)
	}

	switch d.Layout.Scripts {
	case ScriptsSetup:
		if d.Layout.AddAllSubdirs {
			return invalid("add_all_subdirs requires load_unload scripts")
		}
	case ScriptsLoadUnload:
		if d.Layout.RunStartup {
			return invalid("run_startup requires setup scripts")
		}
	default:
		return invalid("unknown scripts %q", d.Layout.Scripts)
	}

	switch d.Symbols.Mode {
	case SymbolsTopLevel, SymbolsRecursive, SymbolsMulti:
	case SymbolsExtensions:
		if len(d.Symbols.Extensions) == 0 {
			return invalid("symbols mode %q needs extensions", d.Symbols.Mode)
		}
	default:
		return invalid("unknown symbols mode %q", d.Symbols.Mode)
	}

	return nil
}

// Eligible reports whether the package is built for buildType on hostPlatform.
func (d *Definition) Eligible(buildType, hostPlatform string) bool {
	if !slices.Contains(d.BuildTypes, buildType) {
		return false
	}

	return len(d.Platforms) == 0 || slices.Contains(d.Platforms, hostPlatform)
}

// Expand substitutes "{name}" and "{version}" in s.
func (d *Definition) Expand(s string) string {
	return strings.NewReplacer("{name}", d.Name, "{version}", d.Version).Replace(s)
}

// Wheel returns the build name for the given platform tag.
func (d *Definition) Wheel(platformTag string) wheel.Name {
	return wheel.Name{
		Package:     d.Name,
		Version:     d.Version,
		MatlabTag:   d.MatlabTag,
		ABITag:      d.ABITag,
		PlatformTag: platformTag,
	}
}

// Target returns the package directory name inside the staged directory.
func (d *Definition) Target() string {
	if d.Layout.Target != "" {
		return d.Layout.Target
	}

	return d.Name
}

// Manifest returns the static part of the package manifest.
func (d *Definition) Manifest(platformTag string) *manifest.Manifest {
	name := d.Name
	ver := d.Version

	return &manifest.Manifest{
		Name:           &name,
		Description:    d.Description,
		Version:        &ver,
		BuildNumber:    d.BuildNumber,
		ReleaseNumber:  d.ReleaseNumber,
		Dependencies:   append([]string{}, d.Dependencies...),
		Homepage:       d.Homepage,
		Repository:     d.Repository,
		License:        d.License,
		MatlabTag:      d.MatlabTag,
		ABITag:         d.ABITag,
		PlatformTag:    platformTag,
		UsageExamples:  d.UsageExamples,
		ExposedSymbols: []string{},
	}
}
