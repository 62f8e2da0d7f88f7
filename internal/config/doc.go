// Package config defines the settings shared by the mip-core binaries and
// loads them from an optional YAML file and the environment.
//
// Bucket credentials come from the AWS_* variables CI already exports;
// BUILD_TYPE and ARCHITECTURE select which packages a run considers.
package config
