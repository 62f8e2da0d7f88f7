// Package tester implements mip-test: it downloads the published index,
// keeps the packages built for the configured architecture and runs an
// install, load, unload and uninstall cycle for each of them in MATLAB.
//
// Every package is tried even after a failure; the run fails when any
// package did.
package tester
