package render

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/node-bootstrap/internal/config"
)

// nodeTemplate is the single node entry written to the node list. Plain
// string templating only: the orchestrator makes no assumptions about the
// proxy protocol beyond the link shape the downstream binaries understand.
const nodeTemplate = "vless://%s@%s:443?encryption=none&security=tls&sni=%s&type=ws&host=%s&path=%%2F#%s"

// serviceConfig is the minimal config.json scaffold for the web binary.
// Operators mount a richer document over it when they need one.
type serviceConfig struct {
	Listen int    `json:"listen"`
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
}

// agentConfig is the YAML document the v1 monitoring agent reads.
type agentConfig struct {
	Server       string `yaml:"server"`
	ClientSecret string `yaml:"client_secret"`
	UUID         string `yaml:"uuid"`
	TLS          bool   `yaml:"tls"`
}

// ServiceConfig renders the config.json handed to the web binary.
func ServiceConfig(s *config.Settings) ([]byte, error) {
	doc := serviceConfig{
		Listen: s.Port,
		UUID:   s.NodeID,
		Name:   s.Name,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal service config: %w", err)
	}

	return data, nil
}

// AgentConfig renders the config.yaml for the v1 monitoring agent.
func AgentConfig(s *config.Settings) ([]byte, error) {
	doc := agentConfig{
		Server:       s.NezhaServer,
		ClientSecret: s.NezhaKey,
		UUID:         s.NodeID,
		TLS:          strings.HasSuffix(s.NezhaServer, ":443"),
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal agent config: %w", err)
	}

	return data, nil
}

// NodeList renders list.txt: one templated entry for the node behind the
// resolved tunnel domain.
func NodeList(s *config.Settings, domain string) []byte {
	entry := fmt.Sprintf(nodeTemplate, s.NodeID, domain, domain, domain, s.Name)

	return []byte(entry + "\n")
}

// Subscription renders sub.txt: the base64 form of the node list, which is
// what subscription consumers fetch.
func Subscription(nodeList []byte) []byte {
	return []byte(base64.StdEncoding.EncodeToString(nodeList))
}
