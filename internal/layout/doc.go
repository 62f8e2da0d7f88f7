// Package layout writes the MATLAB path-management scripts of a staged
// package: either setup.m, or a load_package.m / unload_package.m pair.
//
// Names are substituted into the templates verbatim; a package name
// containing a quote produces a broken script.
package layout
