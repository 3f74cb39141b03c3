package health

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/node-bootstrap/internal/config"
)

func testSettings(t *testing.T, env map[string]string) *config.Settings {
	t.Helper()

	s, err := config.Resolve(func(key string) string {
		return env[key]
	})
	require.NoError(t, err)

	return s
}

// TestRouter_Liveness verifies GET / answers with the placeholder body.
func TestRouter_Liveness(t *testing.T) {
	t.Parallel()

	settings := testSettings(t, map[string]string{config.EnvWorkDir: t.TempDir()})
	server := httptest.NewServer(NewRouter(settings))
	defer server.Close()

	response, err := http.Get(server.URL + "/")
	require.NoError(t, err)

	defer func() {
		_ = response.Body.Close()
	}()

	require.Equal(t, http.StatusOK, response.StatusCode)

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.Equal(t, placeholderBody, string(body))
}

// TestRouter_Subscription verifies the sub route is 404 before rendering and
// serves the file contents afterwards.
func TestRouter_Subscription(t *testing.T) {
	t.Parallel()

	settings := testSettings(t, map[string]string{config.EnvWorkDir: t.TempDir()})
	server := httptest.NewServer(NewRouter(settings))
	defer server.Close()

	response, err := http.Get(server.URL + "/" + settings.SubPath)
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Equal(t, http.StatusNotFound, response.StatusCode)

	require.NoError(t, os.WriteFile(settings.SubFile, []byte("dGVzdA=="), 0o600))

	response, err = http.Get(server.URL + "/" + settings.SubPath)
	require.NoError(t, err)

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Equal(t, "dGVzdA==", string(body))
}

// TestServer_StartAndShutdown verifies the listener is held synchronously by
// Start and answers requests until Shutdown.
func TestServer_StartAndShutdown(t *testing.T) {
	t.Parallel()

	// Pick a free port instead of the default to keep parallel tests apart.
	settings := testSettings(t, map[string]string{
		config.EnvWorkDir: t.TempDir(),
		config.EnvPort:    strconv.Itoa(freePort(t)),
	})

	server := NewServer(settings)
	require.NoError(t, server.Start(context.Background()))

	client := &http.Client{Timeout: 2 * time.Second}

	response, err := client.Get("http://127.0.0.1" + server.srv.Addr + "/")
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Equal(t, http.StatusOK, response.StatusCode)

	require.NoError(t, server.Shutdown(context.Background()))
}

func freePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	return port
}
