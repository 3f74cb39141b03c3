package artifact

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/oshokin/node-bootstrap/internal/config"
)

// Architecture is the CPU family prefix used in artifact URLs.
type Architecture string

const (
	// ArchitectureARM covers aarch64/arm64 machines.
	ArchitectureARM Architecture = "arm"
	// ArchitectureAMD covers everything else (x86_64 and friends).
	ArchitectureAMD Architecture = "amd"
)

// urlTemplate is the fixed artifact source: https://{arch}64.<host>/{key}.
const urlTemplate = "https://%s64.ssss.nyc.mn/%s"

// Artifact keys understood by the remote source.
const (
	keyWeb     = "web"
	keyTunnel  = "2go"
	keyNpmLike = "agent"
	keyPHPLike = "v1"
)

// Spec pairs a downloadable artifact with its destination on disk.
// Specs are built once per startup and discarded after the download phase.
type Spec struct {
	// Name is the short artifact name used in logs.
	Name string
	// URL is the architecture-specific source URL.
	URL string
	// Path is the destination path under the working directory.
	Path string
}

// DetectArchitecture maps a machine string (as reported by uname -m or
// runtime.GOARCH) to the URL prefix. Only aarch64/arm machines select the
// arm variant; any other string selects amd.
func DetectArchitecture(machine string) Architecture {
	machine = strings.ToLower(machine)
	if strings.Contains(machine, "aarch64") || strings.Contains(machine, "arm") {
		return ArchitectureARM
	}

	return ArchitectureAMD
}

// CurrentArchitecture detects the architecture of the running process.
func CurrentArchitecture() Architecture {
	return DetectArchitecture(runtime.GOARCH)
}

// BuildSet computes the artifacts required for this configuration:
// always the web and tunnel binaries, plus exactly one monitoring agent
// variant when monitoring is configured. With a monitoring port the npm-style
// agent is used, without one the php-style v1 agent.
func BuildSet(s *config.Settings, arch Architecture) []Spec {
	specs := []Spec{
		{Name: "web", URL: buildURL(arch, keyWeb), Path: s.WebBinary},
		{Name: "bot", URL: buildURL(arch, keyTunnel), Path: s.BotBinary},
	}

	if !s.HasMonitoring() {
		return specs
	}

	if s.NezhaPort != "" {
		specs = append(specs, Spec{Name: "npm", URL: buildURL(arch, keyNpmLike), Path: s.NpmBinary})
	} else {
		specs = append(specs, Spec{Name: "php", URL: buildURL(arch, keyPHPLike), Path: s.PHPBinary})
	}

	return specs
}

func buildURL(arch Architecture, key string) string {
	return fmt.Sprintf(urlTemplate, arch, key)
}
