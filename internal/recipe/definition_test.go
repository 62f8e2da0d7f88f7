package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const chebfunYAML = `packages:
  - name: chebfun
    description: Numerical computing with functions.
    version: unspecified
    build_number: 3
    homepage: https://github.com/chebfun/chebfun
    repository: https://github.com/chebfun/chebfun
    source:
      zip: https://github.com/chebfun/chebfun/archive/master.zip
      subdir: chebfun-master
`

// TestParseAppliesDefaults checks defaults of a minimal definition.
func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()

	defs, err := Parse([]byte(chebfunYAML))
	require.NoError(t, err)
	require.Len(t, defs, 1)

	def := defs[0]
	require.Equal(t, DefaultRecipe, def.Recipe)
	require.Equal(t, "any", def.MatlabTag)
	require.Equal(t, "none", def.ABITag)
	require.Equal(t, "any", def.PlatformTag)
	require.Equal(t, []string{DefaultBuildType}, def.BuildTypes)
	require.Equal(t, ScriptsSetup, def.Layout.Scripts)
	require.Equal(t, SymbolsTopLevel, def.Symbols.Mode)
	require.NotNil(t, def.Dependencies)
	require.Nil(t, def.License)
	require.Nil(t, def.ReleaseNumber)
	require.Equal(t, "chebfun", def.Target())
	require.Equal(t, "chebfun-unspecified-any-none-any", def.Wheel(def.PlatformTag).String())
}

// TestParseRejectsInvalid covers validation failures and unknown keys.
func TestParseRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown key": `packages:
  - name: a
    version: "1"
    colour: red
    source: {git: https://example.org/a}
`,
		"no source": `packages:
  - name: a
    version: "1"
`,
		"two sources": `packages:
  - name: a
    version: "1"
    source: {git: https://example.org/a, zip: https://example.org/a.zip}
`,
		"no version": `packages:
  - name: a
    source: {git: https://example.org/a}
`,
		"unknown recipe": `packages:
  - name: a
    version: "1"
    recipe: magic
    source: {git: https://example.org/a}
`,
		"all subdirs with setup": `packages:
  - name: a
    version: "1"
    source: {git: https://example.org/a}
    layout: {add_all_subdirs: true}
`,
		"extensions without list": `packages:
  - name: a
    version: "1"
    source: {git: https://example.org/a}
    symbols: {mode: extensions}
`,
		"bad scripts": `packages:
  - name: a
    version: "1"
    source: {git: https://example.org/a}
    layout: {scripts: makefile}
`,
	}

	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		require.Error(t, err, name)
	}
}

// TestEligible filters by build type and host platform.
func TestEligible(t *testing.T) {
	t.Parallel()

	def := &Definition{BuildTypes: []string{"linux_workstation"}, Platforms: []string{"linux_x86_64"}}
	require.True(t, def.Eligible("linux_workstation", "linux_x86_64"))
	require.False(t, def.Eligible("standard", "linux_x86_64"))
	require.False(t, def.Eligible("linux_workstation", "macosx_11_0_arm64"))

	def = &Definition{BuildTypes: []string{"standard"}}
	require.True(t, def.Eligible("standard", "win_amd64"))
	require.False(t, def.Eligible("", "win_amd64"))
}

// TestExpand substitutes name and version placeholders.
func TestExpand(t *testing.T) {
	t.Parallel()

	def := &Definition{Name: "export_fig", Version: "3.54"}
	require.Equal(t,
		"https://github.com/altmany/export_fig/archive/refs/tags/v3.54.zip",
		def.Expand("https://github.com/altmany/export_fig/archive/refs/tags/v{version}.zip"))
	require.Equal(t, "export_fig-3.54", def.Expand("{name}-{version}"))
}

// TestManifestOptionalFields carries optional fields only when defined.
func TestManifestOptionalFields(t *testing.T) {
	t.Parallel()

	license := "GPL-3.0"
	def := &Definition{Name: "FLAM", Version: "unspecified", License: &license, Dependencies: []string{}}

	m := def.Manifest("any")
	require.Equal(t, "FLAM", *m.Name)
	require.Equal(t, "GPL-3.0", *m.License)
	require.Nil(t, m.ReleaseNumber)
	require.Nil(t, m.UsageExamples)
	require.Equal(t, "any", m.PlatformTag)
}

// TestLoadOrdersByDirectory loads definitions sorted by package directory.
func TestLoadOrdersByDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	write := func(sub, name string) {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))

		doc := "packages:\n  - name: " + name + "\n    version: \"1\"\n    source: {git: https://example.org/x}\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, DefinitionFilename), []byte(doc), 0o600))
	}

	write("zeta", "zeta")
	write("alpha", "alpha")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o600))

	defs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	require.Equal(t, "alpha", defs[0].Name)
	require.Equal(t, "zeta", defs[1].Name)
	require.Equal(t, filepath.Join(dir, "alpha"), defs[0].Dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	_, err = Load(dir)
	require.ErrorIs(t, err, ErrNoDefinition)

	_, err = Load(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

// TestRepositoryDefinitions parses every package.yaml shipped in this repository.
func TestRepositoryDefinitions(t *testing.T) {
	t.Parallel()

	defs, err := Load(filepath.Join("..", "..", "packages"))
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		key := def.Wheel(def.PlatformTag).String()
		require.False(t, seen[key], "duplicate wheel %s", key)
		seen[key] = true

		for _, asset := range def.Layout.Assets {
			_, statErr := os.Stat(filepath.Join(def.Dir, asset))
			require.NoError(t, statErr, asset)
		}
	}
}
