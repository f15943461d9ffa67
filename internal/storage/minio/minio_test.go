package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/go-foody/internal/config"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSplitEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		host   string
		secure bool
	}{
		{in: "http://localhost:9000", host: "localhost:9000"},
		{in: "https://s3.example.com", host: "s3.example.com", secure: true},
		{in: "localhost:9000", host: "localhost:9000"},
		{in: "minio", host: "minio"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			host, secure := splitEndpoint(tt.in)
			require.Equal(t, tt.host, host)
			require.Equal(t, tt.secure, secure)
		})
	}
}

func TestURL(t *testing.T) {
	t.Parallel()

	s := &ImagesStorage{baseURL: "https://cdn.example.com/pics"}
	require.Equal(t, "https://cdn.example.com/pics/images/1/a.png", s.URL("images/1/a.png"))
}

const (
	rootUser     = "minioadmin"
	rootPassword = "minioadmin"
	bucket       = "foody-images"
)

// startMinio поднимает MinIO и создаёт бакет. Без GO_TEST_INTEGRATION тест пропускается.
func startMinio(t *testing.T) string {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "minio/minio:latest",
		Cmd:          []string{"server", "/data"},
		Env:          map[string]string{"MINIO_ROOT_USER": rootUser, "MINIO_ROOT_PASSWORD": rootPassword},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)
	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	admin, err := mclient.New(endpoint, &mclient.Options{Creds: credentials.NewStaticV4(rootUser, rootPassword, "")})
	require.NoError(t, err)
	require.NoError(t, admin.MakeBucket(ctx, bucket, mclient.MakeBucketOptions{}))

	return "http://" + endpoint
}

func TestIntegration_PutImage(t *testing.T) {
	endpoint := startMinio(t)
	ctx := context.Background()

	s, err := New(ctx, config.S3Config{
		Endpoint:     endpoint,
		RootUser:     rootUser,
		RootPassword: rootPassword,
		Bucket:       bucket,
	})
	require.NoError(t, err)

	body := []byte("\x89PNG\r\n\x1a\nfake")
	key := "images/1/test.png"
	require.NoError(t, s.PutImage(ctx, key, bytes.NewReader(body), int64(len(body)), "image/png"))

	info, err := s.client.StatObject(ctx, bucket, key, mclient.StatObjectOptions{})
	require.NoError(t, err)
	require.Equal(t, "image/png", info.ContentType)
	require.EqualValues(t, len(body), info.Size)

	obj, err := s.client.GetObject(ctx, bucket, key, mclient.GetObjectOptions{})
	require.NoError(t, err)
	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.Equal(t, body, got)

	u := s.URL(key)
	require.True(t, strings.HasSuffix(u, "/"+bucket+"/"+key), u)
}

func TestIntegration_New_MissingBucket(t *testing.T) {
	endpoint := startMinio(t)

	_, err := New(context.Background(), config.S3Config{
		Endpoint:     endpoint,
		RootUser:     rootUser,
		RootPassword: rootPassword,
		Bucket:       "missing",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}
