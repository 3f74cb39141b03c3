package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/oshokin/node-bootstrap/internal/config"
)

// errNoTunnelDomain is returned when the boot log never shows an assigned
// hostname within the polling budget.
var errNoTunnelDomain = errors.New("tunnel domain not found in boot log")

// assignedDomainPattern matches the hostname the tunnel prints into its boot
// log when running in temporary mode.
var assignedDomainPattern = regexp.MustCompile(`https://([a-zA-Z0-9][a-zA-Z0-9-]*\.trycloudflare\.com)`)

// tunnelArgs builds the tunnel command line. With a fixed token the tunnel
// runs against the pre-configured domain; otherwise it gets a temporary
// domain and reports it via the boot log.
func tunnelArgs(s *config.Settings) []string {
	base := []string{"tunnel", "--edge-ip-version", "auto", "--no-autoupdate"}

	if fixedTunnel(s) {
		return append(base, "run", "--token", s.ArgoAuth)
	}

	return append(base,
		"--logfile", s.BootLogFile,
		"--loglevel", "info",
		"--url", fmt.Sprintf("http://localhost:%d", s.Port),
	)
}

// fixedTunnel reports whether both the auth token and the domain were
// provided, i.e. no boot-log scraping is needed.
func fixedTunnel(s *config.Settings) bool {
	return s.ArgoAuth != "" && s.ArgoDomain != ""
}

// resolveTunnelDomain returns the public hostname of the tunnel: the
// configured one in fixed mode, otherwise the assigned hostname scraped from
// boot.log with a bounded retry. The tunnel needs a few seconds to connect
// before it logs the assignment.
func (r *runner) resolveTunnelDomain(ctx context.Context) (string, error) {
	if fixedTunnel(r.cfg) {
		return r.cfg.ArgoDomain, nil
	}

	for attempt := 0; attempt < r.domainPollAttempts; attempt++ {
		if domain, found := scrapeAssignedDomain(r.cfg.BootLogFile); found {
			return domain, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.domainPollInterval):
		}
	}

	return "", errNoTunnelDomain
}

// scrapeAssignedDomain reads the boot log and extracts the assigned hostname
// if it is there yet.
func scrapeAssignedDomain(bootLogFile string) (string, bool) {
	contents, err := os.ReadFile(bootLogFile)
	if err != nil {
		return "", false
	}

	match := assignedDomainPattern.FindSubmatch(contents)
	if match == nil {
		return "", false
	}

	return string(match[1]), true
}
