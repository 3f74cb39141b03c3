package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/node-bootstrap/internal/domain/artifact"
)

// newArtifactServer serves fake binaries and returns 500 for paths listed in
// failing.
func newArtifactServer(t *testing.T, failing map[string]bool) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing[r.URL.Path] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		_, _ = w.Write([]byte("#!/bin/sh\nexit 0\n"))
	}))
	t.Cleanup(server.Close)

	return server
}

// TestFetch_Success verifies the file lands on disk with the executable bit
// set for the owner.
func TestFetch_Success(t *testing.T) {
	t.Parallel()

	server := newArtifactServer(t, nil)
	dest := filepath.Join(t.TempDir(), "web")

	fetcher := NewFetcher(server.Client())
	require.NoError(t, fetcher.Fetch(context.Background(), server.URL+"/web", dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o100, "owner execute bit must be set")

	contents, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(contents), "exit 0")
}

// TestFetch_FreshDirectory verifies the very first download into an empty
// working directory succeeds when no destination file exists yet.
func TestFetch_FreshDirectory(t *testing.T) {
	t.Parallel()

	server := newArtifactServer(t, nil)
	dir := t.TempDir()
	dest := filepath.Join(dir, "bot")

	_, err := os.Stat(dest)
	require.ErrorIs(t, err, os.ErrNotExist)

	fetcher := NewFetcher(server.Client())
	require.NoError(t, fetcher.Fetch(context.Background(), server.URL+"/bot", dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	require.NotZero(t, info.Size())

	// No temporary or backup files may be left next to the binary.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestFetch_OverwritesExisting verifies a leftover binary from a previous run
// is replaced in place.
func TestFetch_OverwritesExisting(t *testing.T) {
	t.Parallel()

	server := newArtifactServer(t, nil)
	dest := filepath.Join(t.TempDir(), "web")
	require.NoError(t, os.WriteFile(dest, []byte("stale payload"), 0o644))

	fetcher := NewFetcher(server.Client())
	require.NoError(t, fetcher.Fetch(context.Background(), server.URL+"/web", dest))

	contents, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(contents), "exit 0")
	require.NotContains(t, string(contents), "stale")
}

// TestFetch_BadStatus verifies non-2xx statuses are reported as failures.
func TestFetch_BadStatus(t *testing.T) {
	t.Parallel()

	server := newArtifactServer(t, map[string]bool{"/web": true})
	dest := filepath.Join(t.TempDir(), "web")

	fetcher := NewFetcher(server.Client())
	err := fetcher.Fetch(context.Background(), server.URL+"/web", dest)
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestFetch_NetworkFailure verifies connection errors surface as failures.
func TestFetch_NetworkFailure(t *testing.T) {
	t.Parallel()

	server := newArtifactServer(t, nil)
	server.Close()

	fetcher := NewFetcher(nil)
	err := fetcher.Fetch(context.Background(), server.URL+"/web", filepath.Join(t.TempDir(), "web"))
	require.Error(t, err)
}

// TestFetchAll_AllOrNothing verifies one failed download fails the aggregate
// while the surviving peers still finish and land on disk.
func TestFetchAll_AllOrNothing(t *testing.T) {
	t.Parallel()

	server := newArtifactServer(t, map[string]bool{"/bot": true})
	dir := t.TempDir()

	specs := []artifact.Spec{
		{Name: "web", URL: server.URL + "/web", Path: filepath.Join(dir, "web")},
		{Name: "bot", URL: server.URL + "/bot", Path: filepath.Join(dir, "bot")},
		{Name: "php", URL: server.URL + "/php", Path: filepath.Join(dir, "php")},
	}

	orchestrator := NewOrchestrator(NewFetcher(server.Client()))
	err := orchestrator.FetchAll(context.Background(), specs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "artifact bot")

	// Peers were not abandoned mid-flight.
	_, err = os.Stat(specs[0].Path)
	require.NoError(t, err)
	_, err = os.Stat(specs[2].Path)
	require.NoError(t, err)
}

// TestFetchAll_Success verifies the aggregate success path and the idempotent
// permission pass.
func TestFetchAll_Success(t *testing.T) {
	t.Parallel()

	server := newArtifactServer(t, nil)
	dir := t.TempDir()

	specs := []artifact.Spec{
		{Name: "web", URL: server.URL + "/web", Path: filepath.Join(dir, "web")},
		{Name: "bot", URL: server.URL + "/bot", Path: filepath.Join(dir, "bot")},
	}

	orchestrator := NewOrchestrator(NewFetcher(server.Client()))
	require.NoError(t, orchestrator.FetchAll(context.Background(), specs))

	for _, spec := range specs {
		info, err := os.Stat(spec.Path)
		require.NoError(t, err)
		require.NotZero(t, info.Mode()&0o100, "%s must be executable", spec.Name)
	}

	// Running it again over existing files keeps working.
	require.NoError(t, orchestrator.FetchAll(context.Background(), specs))
}
