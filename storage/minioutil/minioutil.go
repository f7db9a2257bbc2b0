package minioutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/minio/madmin-go"
	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	minio "github.com/minio/minio/cmd"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/distplan/util/testutils"
)

/*
Test fixture running an in-process minio server, for exercising the S3
storage provider without external infrastructure.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	testBucket      = "plans"
	accessKeyID     = "minioadmin"
	secretAccessKey = "minioadmin"
	startupTimeout  = 10 * time.Second
)

// NewServer starts a minio server on a random port and returns a client and
// the name of an empty bucket. The returned function tears the server down.
func NewServer(t *testing.T) (*mclient.Client, string, func()) {
	t.Helper()
	ctx := context.Background()
	port, err := testutils.GetOpenPort()
	require.NoError(t, err)
	addr := fmt.Sprintf("localhost:%d", port)

	madm, err := madmin.New(addr, accessKeyID, secretAccessKey, false)
	require.NoError(t, err)

	// The server outlives the test, so its data cannot live in t.TempDir.
	datadir, err := os.MkdirTemp("", "distplan-minio")
	require.NoError(t, err)
	go func() {
		minio.Main([]string{"minio", "server", "--quiet", "--address", addr, datadir})
	}()
	waitReady(ctx, t, madm)

	mc, err := mclient.New(addr, &mclient.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: false,
	})
	require.NoError(t, err)
	require.NoError(t, mc.MakeBucket(ctx, testBucket, mclient.MakeBucketOptions{}))
	return mc, testBucket, func() {
		// Stopping minio calls os.Exit once the test binary winds down, so
		// the stop is delayed past the end of the calling test.
		go func() {
			time.Sleep(5 * time.Second)
			if err := madm.ServiceStop(ctx); err != nil {
				t.Log(err)
			}
		}()
	}
}

func waitReady(ctx context.Context, t *testing.T, madm *madmin.AdminClient) {
	t.Helper()
	start := time.Now()
	for {
		if _, err := madm.ServerInfo(ctx); err == nil {
			return
		}
		if time.Since(start) > startupTimeout {
			t.Fatal("timeout waiting for minio server to start")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
