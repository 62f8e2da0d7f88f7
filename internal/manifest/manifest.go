package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// FilePermissions is used for every JSON document written by this package.
const FilePermissions os.FileMode = 0o644

// timestampLayout matches the UTC timestamps already published in the index.
const timestampLayout = "2006-01-02T15:04:05.000000"

// errEmptyManifest is returned when a nil manifest is written.
var errEmptyManifest = errors.New("manifest is empty")

// Manifest is the mip.json document of one prepared package.
type Manifest struct {
	Name           *string   `json:"name,omitempty"`
	Description    string    `json:"description"`
	Version        *string   `json:"version,omitempty"`
	BuildNumber    int       `json:"build_number"`
	ReleaseNumber  *int      `json:"release_number,omitempty"`
	Dependencies   []string  `json:"dependencies"`
	Homepage       string    `json:"homepage"`
	Repository     string    `json:"repository"`
	License        *string   `json:"license,omitempty"`
	MatlabTag      string    `json:"matlab_tag"`
	ABITag         string    `json:"abi_tag"`
	PlatformTag    string    `json:"platform_tag"`
	UsageExamples  *[]string `json:"usage_examples,omitempty"`
	ExposedSymbols []string  `json:"exposed_symbols"`
	// Timestamp is the UTC preparation time, see Timestamp.
	Timestamp string `json:"timestamp,omitempty"`
	// PrepareDuration and CompileDuration are seconds rounded to two decimals.
	PrepareDuration float64 `json:"prepare_duration"`
	CompileDuration float64 `json:"compile_duration"`
	MHLURL          *string `json:"mhl_url,omitempty"`
	MipJSONURL      *string `json:"mip_json_url,omitempty"`
}

// Timestamp formats t as an ISO-8601 UTC timestamp with a trailing Z.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout) + "Z"
}

// Seconds rounds d to seconds with two decimals.
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

// Write stores m at path as 2-space indented JSON.
func Write(path string, m *Manifest) error {
	if m == nil {
		return errEmptyManifest
	}

	return writeJSON(path, m)
}

// Read loads a manifest from path.
func Read(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err = json.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}

	return &m, nil
}

// Marshal encodes v the way every document of this package is written.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeJSON(path string, v any) error {
	contents, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, FilePermissions); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	return nil
}
