package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/mip-org/mip-core/internal/domain/wheel"
)

// CompareFields are the fields checked before an existing build is reused.
//
//nolint:gochecknoglobals // Fixed schema list.
var CompareFields = []string{
	"name",
	"description",
	"version",
	"build_number",
	"release_number",
	"dependencies",
	"homepage",
	"repository",
	"license",
}

// errNotObject is returned when a document is valid JSON but not an object.
var errNotObject = errors.New("document is not a JSON object")

// Document is a manifest kept as raw JSON values so key presence survives a
// round trip, including keys this version does not know about.
type Document map[string]json.RawMessage

// ParseDocument decodes a JSON object.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, errNotObject
	}

	return doc, nil
}

// ToDocument converts a manifest into its document form.
func ToDocument(m *Manifest) (Document, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return ParseDocument(data)
}

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d[key]

	return ok
}

// Text returns the string value of key, or fallback when it is absent or not a string.
func (d Document) Text(key, fallback string) string {
	raw, ok := d[key]
	if !ok {
		return fallback
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fallback
	}

	return s
}

// SetText stores a string value under key.
func (d Document) SetText(key, value string) {
	//nolint:errchkjson // Marshaling a string cannot fail.
	raw, _ := json.Marshal(value)
	d[key] = raw
}

// Backfill adds mhl_url and mip_json_url derived from the sidecar key when
// the document does not carry them.
func (d Document) Backfill(baseURL, sidecarKey string) {
	sidecar := path.Base(sidecarKey)

	archive, ok := wheel.ArchiveFromSidecar(sidecar)
	if !ok {
		return
	}

	baseURL = strings.TrimRight(baseURL, "/")

	if !d.Has("mhl_url") {
		d.SetText("mhl_url", baseURL+"/"+archive)
	}

	if !d.Has("mip_json_url") {
		d.SetText("mip_json_url", baseURL+"/"+sidecar)
	}
}

// Compare checks fields of local against remote. It returns the first field
// whose values differ, or which is present on one side only.
func Compare(local, remote Document, fields []string) (string, bool) {
	for _, field := range fields {
		localRaw, inLocal := local[field]
		remoteRaw, inRemote := remote[field]

		if inLocal != inRemote {
			return field, false
		}

		if !inLocal {
			continue
		}

		if !sameJSON(localRaw, remoteRaw) {
			return field, false
		}
	}

	return "", true
}

// sameJSON compares two raw values by decoded content, so formatting differences do not count.
func sameJSON(a, b json.RawMessage) bool {
	var left, right any

	if err := json.Unmarshal(a, &left); err != nil {
		return false
	}

	if err := json.Unmarshal(b, &right); err != nil {
		return false
	}

	return reflect.DeepEqual(left, right)
}
