package symbols

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// touch creates an empty file, making parent directories as needed.
func touch(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

// mkdir creates a directory tree.
func mkdir(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(path, 0o755))
}

// TestDecode verifies the three naming rules and their precedence.
func TestDecode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		exts []string
		want string
	}{
		{name: "foo.m", want: "foo"},
		{name: "+pkg", want: "pkg"},
		{name: "@cls", want: "cls"},
		{name: "plain", want: "plain"},
		{name: "README.md", want: "README.md"},
		{name: "kdtree_build.cpp", exts: []string{".m", ".cpp"}, want: "kdtree_build"},
		{name: "+odd.m", want: "+odd"},
		{name: "x.m.m", want: "x.m"},
		{name: "", want: ""},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Decode(tc.name, tc.exts), tc.name)
	}
}

// TestDecodeSuffixProperty checks that a recognized suffix is removed exactly once.
func TestDecodeSuffixProperty(t *testing.T) {
	t.Parallel()

	exts := []string{".m", ".c"}
	for _, base := range []string{"a", "ab.c", "+x", "@y", "long_name_with.dots"} {
		for _, ext := range exts {
			name := base + ext
			got := Decode(name, exts)
			require.Equal(t, strings.TrimSuffix(name, ext), got, name)
		}
	}
}

// TestDecodePrefixProperty checks that a marker prefix removes exactly one character.
func TestDecodePrefixProperty(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"+a", "@b", "++c", "@+d", "+"} {
		require.Equal(t, name[1:], Decode(name, nil), name)
	}
}

// TestTopLevel verifies filtering and ordering of immediate children.
func TestTopLevel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "foo.m"))
	touch(t, filepath.Join(dir, "ignored.txt"))
	mkdir(t, filepath.Join(dir, "+bar"))
	mkdir(t, filepath.Join(dir, "@baz"))
	mkdir(t, filepath.Join(dir, "private"))
	touch(t, filepath.Join(dir, "private", "hidden.m"))
	mkdir(t, filepath.Join(dir, "dir.m"))

	require.Equal(t, []string{"bar", "baz", "foo"}, TopLevel(dir))
}

// TestTopLevelKeepsRawOrder shows that decoded names are not re-sorted.
func TestTopLevelKeepsRawOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.m"))
	mkdir(t, filepath.Join(dir, "+z"))

	// "+z" sorts before "a.m" as a raw name.
	require.Equal(t, []string{"z", "a"}, TopLevel(dir))
}

// TestWithExtensions verifies custom extensions such as MEX sources.
func TestWithExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "kdtree_build.cpp"))
	touch(t, filepath.Join(dir, "kdtree_query.m"))
	touch(t, filepath.Join(dir, "helper.h"))
	mkdir(t, filepath.Join(dir, "@KDTree"))

	got := WithExtensions(dir, []string{".m", ".cpp"})
	require.Equal(t, []string{"KDTree", "kdtree_build", "kdtree_query"}, got)
}

// TestRecursiveExcludes verifies pruning of excluded directories.
func TestRecursiveExcludes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.m"))
	touch(t, filepath.Join(dir, "test", "b.m"))
	touch(t, filepath.Join(dir, "sub", "c.m"))

	require.Equal(t, []string{"a", "c"}, Recursive(dir, []string{"test"}))
}

// TestRecursiveExcludesAtAnyDepth ensures nothing under an excluded directory is reported.
func TestRecursiveExcludesAtAnyDepth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "z.m"))
	touch(t, filepath.Join(dir, "sub", "deep", "test", "hidden.m"))
	mkdir(t, filepath.Join(dir, "sub", "deep", "test", "+hiddenpkg"))
	touch(t, filepath.Join(dir, "paper", "fig.m"))
	mkdir(t, filepath.Join(dir, "sub", "+pkg"))
	touch(t, filepath.Join(dir, "sub", "+pkg", "inner.m"))
	mkdir(t, filepath.Join(dir, "sub", "@cls"))

	got := Recursive(dir, []string{"test", "paper"})
	require.Equal(t, []string{"cls", "inner", "pkg", "z"}, got)
	require.NotContains(t, got, "hidden")
	require.NotContains(t, got, "hiddenpkg")
	require.NotContains(t, got, "fig")
}

// TestMultiplePaths verifies concatenation and sorting across directories.
func TestMultiplePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tools := filepath.Join(dir, "tools")
	touch(t, filepath.Join(dir, "surfacefun.m"))
	touch(t, filepath.Join(tools, "plot_tool.m"))
	mkdir(t, filepath.Join(dir, "@Surfacefun"))

	got := MultiplePaths(dir, tools)
	require.Equal(t, []string{"Surfacefun", "plot_tool", "surfacefun"}, got)
}

// TestMissingDirectories ensures every mode reports an empty list instead of failing.
func TestMissingDirectories(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing")

	require.NotNil(t, TopLevel(missing))
	require.Empty(t, TopLevel(missing))
	require.Empty(t, WithExtensions(missing, []string{".c"}))
	require.Empty(t, Recursive(missing, nil))
	require.NotNil(t, MultiplePaths(missing, filepath.Join(missing, "other")))
	require.Empty(t, MultiplePaths(missing, filepath.Join(missing, "other")))
}
