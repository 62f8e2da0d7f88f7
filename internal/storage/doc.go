// Package storage talks to the S3-compatible bucket packages are published to.
//
// Services depend on the Bucket interface; S3 implements it with minio-go
// and Memory is an in-process stand-in used by tests and dry runs.
package storage
