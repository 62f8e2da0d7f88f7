// Package manifest reads and writes the mip.json metadata of a package and
// the consolidated index built from published sidecars.
//
// Optional fields are pointers tagged omitempty: an absent value is left out
// of the document instead of being written as null, and Compare treats a key
// present on one side only as a mismatch.
package manifest
