// Package recipe loads package definitions and turns them into builds.
//
// A definition lives in packages/<dir>/package.yaml and names a recipe from
// a static registry. The "standard" recipe covers the declarative cases
// (fetch, optional patch and build, move into place, write path scripts,
// collect symbols); "native" additionally binds the build to the host
// platform for packages that compile MEX files.
package recipe
