package download

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/multierr"

	"github.com/oshokin/node-bootstrap/internal/config"
	"github.com/oshokin/node-bootstrap/internal/domain/artifact"
	"github.com/oshokin/node-bootstrap/internal/logger"
)

// Orchestrator downloads a full artifact set with an all-or-nothing policy:
// a tunnel without its peer binary is useless, so a single failed artifact
// fails the whole batch.
type Orchestrator struct {
	fetcher *Fetcher
}

// NewOrchestrator creates an orchestrator around the provided fetcher.
func NewOrchestrator(fetcher *Fetcher) *Orchestrator {
	return &Orchestrator{fetcher: fetcher}
}

// FetchAll downloads every spec concurrently over the shared client. All
// fetches are issued before any is awaited; in-flight peers are not canceled
// on a failure so each artifact gets a definitive, logged outcome. The
// aggregate succeeds only when every fetch succeeded, after which every path
// gets an idempotent executable-permission pass.
func (o *Orchestrator) FetchAll(ctx context.Context, specs []artifact.Spec) error {
	var (
		wg      sync.WaitGroup
		results = make([]error, len(specs))
	)

	for i, spec := range specs {
		i, spec := i, spec

		wg.Add(1)

		go func() {
			defer wg.Done()

			logger.InfoKV(ctx, "Downloading artifact", "name", spec.Name, "url", spec.URL)

			if err := o.fetcher.Fetch(ctx, spec.URL, spec.Path); err != nil {
				logger.ErrorKV(ctx, "Artifact download failed",
					"name", spec.Name, "url", spec.URL, "error", err)

				results[i] = fmt.Errorf("artifact %s: %w", spec.Name, err)

				return
			}

			logger.InfoKV(ctx, "Artifact downloaded", "name", spec.Name, "path", spec.Path)
		}()
	}

	wg.Wait()

	if err := multierr.Combine(results...); err != nil {
		return err
	}

	for _, spec := range specs {
		if err := os.Chmod(spec.Path, config.DefaultBinaryPermissions); err != nil {
			return fmt.Errorf("authorize %s: %w", spec.Path, err)
		}

		logger.InfoKV(ctx, "Execute permission set", "path", spec.Path)
	}

	return nil
}
