// Package acquire fetches upstream package sources and prepares the fetched
// tree: git clones without history, zip downloads, shell build steps, native
// binary removal and a few file helpers.
//
// Every function takes explicit paths; nothing here changes the process
// working directory.
package acquire
