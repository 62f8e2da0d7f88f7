package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/storage"
)

const (
	minioImage    = "minio/minio:RELEASE.2024-10-13T13-34-11Z"
	minioUser     = "mip-access"
	minioPassword = "mip-secret-key"
	minioPort     = "9000/tcp"
	testBucket    = "mip-packages"
	testPrefix    = "core/packages"
)

// checkTestcontainersAvailable reports whether a container provider can be reached.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}

	defer func() {
		_ = provider.Close()
	}()

	return true
}

// startMinio runs a MinIO server and returns storage settings pointing at an existing bucket.
func startMinio(t *testing.T) config.Storage {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	if !checkTestcontainersAvailable() {
		t.Skip("skipping integration test: container provider not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{minioPort},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort(minioPort),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, minioPort)
	require.NoError(t, err)

	settings := config.Storage{
		Bucket:    testBucket,
		Prefix:    testPrefix,
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		Region:    "us-east-1",
		AccessKey: minioUser,
		SecretKey: minioPassword,
	}

	bucket, err := storage.NewS3(settings)
	require.NoError(t, err)
	require.NoError(t, bucket.EnsureBucket(ctx))

	return settings
}
