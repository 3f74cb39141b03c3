package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/node-bootstrap/internal/config"
	"github.com/oshokin/node-bootstrap/internal/service/bootstrap"
)

// reservePort grabs a free TCP port and releases it for the server to bind.
func reservePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	return port
}

// TestBootstrap_HealthServesDuringDownloads runs the real sequencer and
// verifies the liveness endpoint answers while the download phase is still
// in flight. The artifact source is unreachable here, so downloads either
// hang or fail; liveness must be independent of both.
func TestBootstrap_HealthServesDuringDownloads(t *testing.T) {
	port := reservePort(t)
	workDir := t.TempDir()

	env := map[string]string{
		config.EnvWorkDir: workDir,
		config.EnvPort:    strconv.Itoa(port),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- bootstrap.Run(ctx, &bootstrap.Options{
			Lookup: func(key string) string {
				return env[key]
			},
		})
	}()

	// The health endpoint must answer within the startup window regardless
	// of download progress.
	client := &http.Client{Timeout: time.Second}
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	require.Eventually(t, func() bool {
		response, err := client.Get(baseURL + "/")
		if err != nil {
			return false
		}

		defer func() {
			_ = response.Body.Close()
		}()

		body, err := io.ReadAll(response.Body)

		return err == nil && response.StatusCode == http.StatusOK && len(body) > 0
	}, 10*time.Second, 100*time.Millisecond, "liveness must not be blocked behind downloads")

	// Graceful stop: Run returns nil on context cancellation even when the
	// bootstrap itself failed.
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(90 * time.Second):
		t.Fatal("bootstrap did not stop after context cancellation")
	}
}
