package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oshokin/node-bootstrap/internal/config"
	"github.com/oshokin/node-bootstrap/internal/domain/artifact"
	"github.com/oshokin/node-bootstrap/internal/logger"
	"github.com/oshokin/node-bootstrap/internal/service/render"
	"github.com/oshokin/node-bootstrap/internal/service/supervisor"
)

// State names the sequencer phases. Running and Failed are terminal: both
// idle indefinitely so the health endpoint stays reachable.
type State string

const (
	StateInit             State = "init"
	StateEnvironmentReady State = "environment_ready"
	StateHealthServing    State = "health_serving"
	StateDownloading      State = "downloading"
	StateLaunching        State = "launching"
	StateRunning          State = "running"
	StateFailed           State = "failed"
)

// Run drives the whole bootstrap: prepare environment, start the health
// endpoint, download artifacts, launch services, then idle until the context
// is canceled. Only environment preparation and the health bind are fatal;
// a failed download parks the sequencer in Failed with health still up.
func (r *runner) Run(ctx context.Context) error {
	if err := r.prepareEnvironment(ctx); err != nil {
		return err
	}

	if err := r.health.Start(ctx); err != nil {
		return fmt.Errorf("start health endpoint: %w", err)
	}

	r.setState(ctx, StateHealthServing)

	if err := r.bootstrapServices(ctx); err != nil {
		r.setState(ctx, StateFailed)
		logger.ErrorKV(ctx, "Bootstrap failed, no services started; health endpoint stays up",
			"error", err)
	} else {
		r.setState(ctx, StateRunning)
		logger.Info(ctx, "Bootstrap complete, all services started")
	}

	return r.idle(ctx)
}

// prepareEnvironment creates the working directory. Idempotent; failure is
// fatal before any network I/O.
func (r *runner) prepareEnvironment(ctx context.Context) error {
	if err := os.MkdirAll(r.cfg.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create working directory %s: %w", r.cfg.WorkDir, err)
	}

	logger.InfoKV(ctx, "Working directory ready", "path", r.cfg.WorkDir)
	r.setState(ctx, StateEnvironmentReady)

	return nil
}

// bootstrapServices runs the download and launch phases. Any error before
// the launches means no service is started at all; launch errors themselves
// are logged and skipped without rolling back earlier launches.
func (r *runner) bootstrapServices(ctx context.Context) error {
	specs := artifact.BuildSet(r.cfg, r.arch)
	logger.InfoKV(ctx, "Artifact set computed", "architecture", r.arch, "count", len(specs))

	r.setState(ctx, StateDownloading)

	if err := r.downloader.FetchAll(ctx, specs); err != nil {
		return fmt.Errorf("download artifacts: %w", err)
	}

	r.setState(ctx, StateLaunching)

	// Leftovers from a previous run of the same working directory would
	// hold ports the fresh children need.
	r.launcher.TerminateStale(ctx, r.managedBinaries())

	if err := r.writeServiceFiles(ctx); err != nil {
		return err
	}

	// The web service must be up before the tunnel that proxies into it,
	// so the launches are issued as separate sequential calls.
	for _, p := range r.processes() {
		if err := r.launcher.Launch(ctx, p); err != nil {
			logger.ErrorKV(ctx, "Failed to launch background process",
				"name", p.Name, "error", err)
		}
	}

	r.publishSubscription(ctx)

	return nil
}

// processes builds the launch list in start order: web, optional monitoring
// agent, tunnel.
func (r *runner) processes() []supervisor.Process {
	procs := []supervisor.Process{
		{
			Name: "web",
			Path: r.cfg.WebBinary,
			Args: []string{"-c", r.cfg.ServiceConfigFile},
		},
	}

	if r.cfg.HasMonitoring() {
		if r.cfg.NezhaPort != "" {
			procs = append(procs, supervisor.Process{
				Name: "npm",
				Path: r.cfg.NpmBinary,
				Args: agentArgs(r.cfg),
			})
		} else {
			procs = append(procs, supervisor.Process{
				Name: "php",
				Path: r.cfg.PHPBinary,
				Args: []string{"-c", r.cfg.AgentConfigFile},
			})
		}
	}

	procs = append(procs, supervisor.Process{
		Name: "bot",
		Path: r.cfg.BotBinary,
		Args: tunnelArgs(r.cfg),
	})

	return procs
}

// managedBinaries lists every executable this bootstrap may have launched in
// a previous run.
func (r *runner) managedBinaries() []string {
	return []string{r.cfg.WebBinary, r.cfg.BotBinary, r.cfg.NpmBinary, r.cfg.PHPBinary}
}

// agentArgs builds the command line for the npm-style monitoring agent.
func agentArgs(s *config.Settings) []string {
	args := []string{
		"-s", s.NezhaServer + ":" + s.NezhaPort,
		"-p", s.NezhaKey,
	}

	if s.NezhaPort == "443" {
		args = append(args, "--tls")
	}

	return args
}

// writeServiceFiles renders config.json and, when the v1 agent is in play,
// its config.yaml.
func (r *runner) writeServiceFiles(ctx context.Context) error {
	data, err := render.ServiceConfig(r.cfg)
	if err != nil {
		return err
	}

	if err = os.WriteFile(r.cfg.ServiceConfigFile, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write service config: %w", err)
	}

	logger.InfoKV(ctx, "Service config written", "path", r.cfg.ServiceConfigFile)

	if !r.cfg.HasMonitoring() || r.cfg.NezhaPort != "" {
		return nil
	}

	data, err = render.AgentConfig(r.cfg)
	if err != nil {
		return err
	}

	if err = os.WriteFile(r.cfg.AgentConfigFile, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write agent config: %w", err)
	}

	logger.InfoKV(ctx, "Agent config written", "path", r.cfg.AgentConfigFile)

	return nil
}

// publishSubscription resolves the tunnel domain, writes list.txt/sub.txt and
// performs the optional outbound registrations. Everything here is
// best-effort: the services are already running.
func (r *runner) publishSubscription(ctx context.Context) {
	domain, err := r.resolveTunnelDomain(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Tunnel domain not resolved, subscription not rendered", "error", err)
		return
	}

	logger.InfoKV(ctx, "Tunnel domain resolved", "domain", domain)

	nodeList := render.NodeList(r.cfg, domain)
	if err = os.WriteFile(r.cfg.ListFile, nodeList, config.DefaultFilePermissions); err != nil {
		logger.WarnKV(ctx, "Unable to write node list", "error", err)
		return
	}

	subscription := render.Subscription(nodeList)
	if err = os.WriteFile(r.cfg.SubFile, subscription, config.DefaultFilePermissions); err != nil {
		logger.WarnKV(ctx, "Unable to write subscription", "error", err)
		return
	}

	logger.InfoKV(ctx, "Subscription rendered", "path", r.cfg.SubFile)

	r.registerUpstream(ctx)
}

// setState logs every transition; the field is only touched from the
// sequencer goroutine.
func (r *runner) setState(ctx context.Context, next State) {
	logger.InfoKV(ctx, "State transition", "from", r.state, "to", next)
	r.state = next
}

// idle keeps the process alive so detached children and the health endpoint
// remain reachable. Returns once the context is canceled.
func (r *runner) idle(ctx context.Context) error {
	ticker := time.NewTicker(r.idleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := r.health.Shutdown(shutdownCtx); err != nil {
				logger.WarnKV(ctx, "Health endpoint shutdown failed", "error", err)
			}

			return nil
		case <-ticker.C:
			logger.DebugKV(ctx, "Idle", "state", r.state)
		}
	}
}
