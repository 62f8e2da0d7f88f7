// Package symbols derives the names a MATLAB package exposes from its
// on-disk layout.
//
// Files with a recognized extension (default ".m") expose their base name,
// package directories (+name) and class directories (@name) expose the name
// without the marker. Collection never fails on a missing directory; it
// reports nothing instead.
package symbols
