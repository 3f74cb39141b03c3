package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/oshokin/node-bootstrap/internal/config"
)

// errBadHTTPStatus is returned when the artifact source answers non-2xx.
var errBadHTTPStatus = errors.New("unexpected http status")

// Fetcher streams single artifacts from the remote source to disk.
type Fetcher struct {
	// client is shared across concurrent fetches to reuse connections.
	client *http.Client
}

// NewFetcher creates a fetcher around the provided client. A nil client gets
// a default one with the standard download timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: config.DefaultDownloadTimeout}
	}

	return &Fetcher{client: client}
}

// Fetch downloads url into dest. The body is copied to the destination file
// in bounded chunks, so the payload is never fully buffered in memory, and
// the file is created executable. An existing destination is truncated and
// overwritten in place. Non-2xx statuses, network failures and write failures
// are all reported as plain errors; on failure the destination must be
// treated as untrusted.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	response, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.DefaultBinaryPermissions)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err = io.Copy(out, response.Body); err != nil {
		_ = out.Close()

		return fmt.Errorf("write %s: %w", dest, err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}

	return nil
}
