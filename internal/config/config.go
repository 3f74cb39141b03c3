package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Settings holds every environment-derived parameter the bootstrap needs.
// It is constructed once by Resolve and never mutated afterwards; components
// receive it read-only.
type Settings struct {
	// UploadURL is the optional aggregator endpoint the rendered
	// subscription is pushed to after startup.
	UploadURL string
	// ProjectURL is the public URL of this deployment, used for the
	// optional auto-access registration.
	ProjectURL string
	// AutoAccess enables the auto-access registration against ProjectURL.
	AutoAccess bool
	// WorkDir is the directory holding every downloaded binary and
	// generated file.
	WorkDir string
	// SubPath is the HTTP sub-path the subscription is served under.
	SubPath string
	// NodeID is the UUID identifying this node in generated configs.
	NodeID string
	// NezhaServer, NezhaPort and NezhaKey configure the optional
	// monitoring agent. The agent is downloaded only when both server and
	// key are set; the port decides which agent variant is used.
	NezhaServer string
	NezhaPort   string
	NezhaKey    string
	// ArgoDomain and ArgoAuth select fixed-tunnel mode. When either is
	// empty the tunnel runs in temporary mode and its assigned domain is
	// scraped from the boot log.
	ArgoDomain string
	ArgoAuth   string
	// Name is the display name embedded into generated node entries.
	Name string
	// Port is the listen port of the health endpoint and the local
	// service the tunnel proxies into.
	Port int

	// Derived paths, all under WorkDir. Computed once in Resolve so no
	// caller ever re-derives them.
	SubFile           string
	ListFile          string
	ServiceConfigFile string
	AgentConfigFile   string
	BootLogFile       string
	WebBinary         string
	BotBinary         string
	NpmBinary         string
	PHPBinary         string
}

// Environment variable names read by Resolve. The listen port is checked
// under two names; the first non-empty one wins.
const (
	EnvUploadURL   = "UPLOAD_URL"
	EnvProjectURL  = "PROJECT_URL"
	EnvAutoAccess  = "AUTO_ACCESS"
	EnvWorkDir     = "FILE_PATH"
	EnvSubPath     = "SUB_PATH"
	EnvNodeID      = "UUID"
	EnvNezhaServer = "NEZHA_SERVER"
	EnvNezhaPort   = "NEZHA_PORT"
	EnvNezhaKey    = "NEZHA_KEY"
	EnvArgoDomain  = "ARGO_DOMAIN"
	EnvArgoAuth    = "ARGO_AUTH"
	EnvName        = "NAME"
	EnvServerPort  = "SERVER_PORT"
	EnvPort        = "PORT"
)

const (
	// DefaultWorkDir is used when FILE_PATH is not set.
	DefaultWorkDir = "./.cache"

	// DefaultSubPath is the default subscription sub-path.
	DefaultSubPath = "sub"

	// DefaultNodeID is the fixed fallback node UUID.
	DefaultNodeID = "ff24ebc4-8b2f-4eae-a40b-0fe47473541f"

	// DefaultName is the default display name for generated node entries.
	DefaultName = "Vls"

	// DefaultPort is used when neither SERVER_PORT nor PORT is set.
	DefaultPort = 3000

	// DefaultFilePermissions restricts generated configuration files.
	DefaultFilePermissions = 0o600

	// DefaultBinaryPermissions is applied to downloaded executables.
	DefaultBinaryPermissions = 0o775

	// DefaultDownloadTimeout bounds a single artifact download.
	DefaultDownloadTimeout = 60 * time.Second
)

// errPortNotNumeric is returned when a port variable holds a non-numeric
// or non-positive value.
var errPortNotNumeric = errors.New("port must be a positive integer")

// LookupFunc returns the value of an environment variable, empty if unset.
// os.Getenv satisfies it; tests inject maps.
type LookupFunc func(key string) string

// Resolve builds an immutable Settings value from the provided lookup.
// Absent or empty variables fall back to their documented defaults. It fails
// only on malformed typed input (non-numeric port, invalid UUID) and performs
// no I/O.
func Resolve(lookup LookupFunc) (*Settings, error) {
	port, err := resolvePort(lookup)
	if err != nil {
		return nil, err
	}

	nodeID := valueOrDefault(lookup(EnvNodeID), DefaultNodeID)
	if _, err = uuid.Parse(nodeID); err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", EnvNodeID, nodeID, err)
	}

	workDir := valueOrDefault(lookup(EnvWorkDir), DefaultWorkDir)

	s := &Settings{
		UploadURL:   lookup(EnvUploadURL),
		ProjectURL:  lookup(EnvProjectURL),
		AutoAccess:  strings.EqualFold(lookup(EnvAutoAccess), "true"),
		WorkDir:     workDir,
		SubPath:     valueOrDefault(lookup(EnvSubPath), DefaultSubPath),
		NodeID:      nodeID,
		NezhaServer: lookup(EnvNezhaServer),
		NezhaPort:   lookup(EnvNezhaPort),
		NezhaKey:    lookup(EnvNezhaKey),
		ArgoDomain:  lookup(EnvArgoDomain),
		ArgoAuth:    lookup(EnvArgoAuth),
		Name:        valueOrDefault(lookup(EnvName), DefaultName),
		Port:        port,

		SubFile:           filepath.Join(workDir, "sub.txt"),
		ListFile:          filepath.Join(workDir, "list.txt"),
		ServiceConfigFile: filepath.Join(workDir, "config.json"),
		AgentConfigFile:   filepath.Join(workDir, "config.yaml"),
		BootLogFile:       filepath.Join(workDir, "boot.log"),
		WebBinary:         filepath.Join(workDir, "web"),
		BotBinary:         filepath.Join(workDir, "bot"),
		NpmBinary:         filepath.Join(workDir, "npm"),
		PHPBinary:         filepath.Join(workDir, "php"),
	}

	return s, nil
}

// FromEnv resolves settings from the process environment.
func FromEnv() (*Settings, error) {
	return Resolve(os.Getenv)
}

// HasMonitoring reports whether the monitoring agent is configured at all.
func (s *Settings) HasMonitoring() bool {
	return s.NezhaServer != "" && s.NezhaKey != ""
}

// resolvePort picks the listen port from SERVER_PORT, then PORT, then the
// default. A present but non-numeric value is a configuration error.
func resolvePort(lookup LookupFunc) (int, error) {
	for _, key := range []string{EnvServerPort, EnvPort} {
		raw := lookup(key)
		if raw == "" {
			continue
		}

		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, errPortNotNumeric)
		}

		return port, nil
	}

	return DefaultPort, nil
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
