package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCompareMismatchOnAbsence verifies that a field present on one side only is a mismatch.
func TestCompareMismatchOnAbsence(t *testing.T) {
	t.Parallel()

	local, err := ParseDocument([]byte(`{"name":"FLAM","license":"GPL-3.0","build_number":1}`))
	require.NoError(t, err)

	remote, err := ParseDocument([]byte(`{"name":"FLAM","build_number":1}`))
	require.NoError(t, err)

	field, ok := Compare(local, remote, CompareFields)
	require.False(t, ok)
	require.Equal(t, "license", field)

	field, ok = Compare(remote, local, CompareFields)
	require.False(t, ok)
	require.Equal(t, "license", field)
}

// TestCompareAbsentNotEqualToEmpty ensures absence is distinct from an empty value.
func TestCompareAbsentNotEqualToEmpty(t *testing.T) {
	t.Parallel()

	local, err := ParseDocument([]byte(`{"dependencies":[]}`))
	require.NoError(t, err)

	remote, err := ParseDocument([]byte(`{}`))
	require.NoError(t, err)

	_, ok := Compare(local, remote, []string{"dependencies"})
	require.False(t, ok)
}

// TestCompareMatch ignores formatting and unlisted fields.
func TestCompareMatch(t *testing.T) {
	t.Parallel()

	local, err := ParseDocument([]byte(`{"name":"kdtree","build_number":3,"dependencies":["a","b"],"timestamp":"x"}`))
	require.NoError(t, err)

	remote, err := ParseDocument([]byte(`{
  "name": "kdtree",
  "build_number": 3.0,
  "dependencies": ["a", "b"],
  "timestamp": "y"
}`))
	require.NoError(t, err)

	field, ok := Compare(local, remote, CompareFields)
	require.True(t, ok, field)

	remote["dependencies"] = []byte(`["b","a"]`)
	field, ok = Compare(local, remote, CompareFields)
	require.False(t, ok)
	require.Equal(t, "dependencies", field)
}

// TestToDocument checks that optional fields only appear when set.
func TestToDocument(t *testing.T) {
	t.Parallel()

	doc, err := ToDocument(&Manifest{Name: ptr("chunkie"), License: ptr("BSD-3-Clause")})
	require.NoError(t, err)
	require.True(t, doc.Has("license"))
	require.False(t, doc.Has("release_number"))
	require.Equal(t, "chunkie", doc.Text("name", ""))
	require.Equal(t, "fallback", doc.Text("missing", "fallback"))
}

// TestBackfill derives download URLs from the sidecar key only when absent.
func TestBackfill(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"name":"a"}`))
	require.NoError(t, err)

	doc.Backfill("https://cdn.example.org/core/packages/", "core/packages/a-1-any-none-any.mhl.mip.json")
	require.Equal(t, "https://cdn.example.org/core/packages/a-1-any-none-any.mhl", doc.Text("mhl_url", ""))
	require.Equal(t,
		"https://cdn.example.org/core/packages/a-1-any-none-any.mhl.mip.json", doc.Text("mip_json_url", ""))

	doc, err = ParseDocument([]byte(`{"mhl_url":"https://old/a.mhl"}`))
	require.NoError(t, err)

	doc.Backfill("https://cdn.example.org", "core/packages/a.mhl.mip.json")
	require.Equal(t, "https://old/a.mhl", doc.Text("mhl_url", ""))
	require.Equal(t, "https://cdn.example.org/a.mhl.mip.json", doc.Text("mip_json_url", ""))
}

// TestParseDocumentRejectsNonObjects covers arrays, null and broken JSON.
func TestParseDocumentRejectsNonObjects(t *testing.T) {
	t.Parallel()

	for _, input := range []string{`[1,2]`, `null`, `{"a":`, `"text"`} {
		_, err := ParseDocument([]byte(input))
		require.Error(t, err, input)
	}
}
