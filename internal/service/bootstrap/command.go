package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/oshokin/node-bootstrap/internal/config"
	"github.com/oshokin/node-bootstrap/internal/domain/artifact"
	"github.com/oshokin/node-bootstrap/internal/logger"
	"github.com/oshokin/node-bootstrap/internal/service/download"
	"github.com/oshokin/node-bootstrap/internal/service/health"
	"github.com/oshokin/node-bootstrap/internal/service/supervisor"
)

// Options are inputs accepted by the bootstrap entry point.
type Options struct {
	// Lookup overrides the environment source, mainly for tests.
	// Defaults to os.Getenv.
	Lookup config.LookupFunc
}

// Component interfaces kept small so tests can substitute them.
type (
	artifactDownloader interface {
		FetchAll(ctx context.Context, specs []artifact.Spec) error
	}

	processLauncher interface {
		Launch(ctx context.Context, p supervisor.Process) error
		TerminateStale(ctx context.Context, names []string)
	}

	healthServer interface {
		Start(ctx context.Context) error
		Shutdown(ctx context.Context) error
	}
)

// runner holds the wiring for a single bootstrap execution.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	cfg        *config.Settings
	arch       artifact.Architecture
	downloader artifactDownloader
	launcher   processLauncher
	health     healthServer
	httpClient *http.Client

	state State

	// idleInterval paces the indefinite wait in Running/Failed.
	idleInterval time.Duration
	// domainPollInterval/domainPollAttempts bound the boot.log scrape.
	domainPollInterval time.Duration
	domainPollAttempts int
}

const (
	defaultIdleInterval       = time.Hour
	defaultDomainPollInterval = 2 * time.Second
	defaultDomainPollAttempts = 15
	outboundTimeout           = 30 * time.Second
	shutdownTimeout           = 5 * time.Second
)

// Run executes the bootstrap lifecycle and is the public entry point for the
// CLI. It returns only on a fatal startup error or context cancellation; on
// a failed download the process parks with the health endpoint still serving.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "node-bootstrap")

	var (
		settings *config.Settings
		err      error
	)

	if opts != nil && opts.Lookup != nil {
		settings, err = config.Resolve(opts.Lookup)
	} else {
		settings, err = config.FromEnv()
	}

	if err != nil {
		logger.ErrorKV(ctx, "Configuration error", "error", err)
		return err
	}

	return newRunner(settings).Run(ctx)
}

// newRunner wires the production components for the provided settings.
func newRunner(settings *config.Settings) *runner {
	return &runner{
		cfg:        settings,
		arch:       artifact.CurrentArchitecture(),
		downloader: download.NewOrchestrator(download.NewFetcher(nil)),
		launcher:   supervisor.New(),
		health:     health.NewServer(settings),
		httpClient: &http.Client{Timeout: outboundTimeout},

		state: StateInit,

		idleInterval:       defaultIdleInterval,
		domainPollInterval: defaultDomainPollInterval,
		domainPollAttempts: defaultDomainPollAttempts,
	}
}
