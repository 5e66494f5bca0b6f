// Package mongotest starts a throwaway MongoDB for integration tests.
//
// The environment tunes it for CI:
//
//	MONGOTEST_DISABLE          skip every MongoDB test (yes/no)
//	MONGOTEST_URI              use this server instead of a container
//	MONGOTEST_IMAGE            container image, default mongo:7
//	MONGOTEST_STARTUP_TIMEOUT  container start timeout, default 60s
package mongotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tendant/dental-idm/pkg/config"
	"github.com/tendant/dental-idm/pkg/mongodb"
)

const defaultImage = "mongo:7"

// Start returns a connected Store with indexes in place. Each call gets its
// own database, dropped when the test finishes, and a container started here
// is terminated then too. Tests are skipped in -short mode.
func Start(t *testing.T) *mongodb.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	if config.GetEnvBool("MONGOTEST_DISABLE", false) {
		t.Skip("MongoDB integration tests disabled by MONGOTEST_DISABLE")
	}

	ctx := context.Background()
	uri := config.GetEnvOrDefault("MONGOTEST_URI", "")
	if uri == "" {
		uri = startContainer(ctx, t)
	}

	store, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      uri,
		Database: "dental_test_" + primitive.NewObjectID().Hex(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := store.Database().Drop(context.Background()); err != nil {
			t.Logf("failed to drop test database: %s", err)
		}
		_ = store.Close(context.Background())
	})

	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func startContainer(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tcmongo.Run(ctx, config.GetEnvOrDefault("MONGOTEST_IMAGE", defaultImage),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Waiting for connections").
				WithStartupTimeout(config.GetEnvDuration("MONGOTEST_STARTUP_TIMEOUT", 60*time.Second))),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return uri
}
