// Package config loads and validates the pipeline configuration document.
//
// Configuration is a single JSON file read once at process start. The
// loaded Config value is passed explicitly into every component — there
// is no ambient lookup inside core logic.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServiceMixed is the fallback service type: its tracker list receives
// projects whose service has no dedicated list.
const ServiceMixed = "mixed"

// ServiceTypes is the closed set of project service types.
var ServiceTypes = []string{"video", "branding", "web", ServiceMixed}

// CRM holds local store settings.
type CRM struct {
	DBPath string `json:"dbPath"`
}

// Comms holds Slack delivery settings.
type Comms struct {
	ChannelID string `json:"channelId"`
}

// Secrets holds the out-of-band API tokens.
type Secrets struct {
	SlackBotToken   string `json:"slackBotToken"`
	ClickupAPIToken string `json:"clickupApiToken"`
}

// ProjectTracker maps service types to ClickUp list ids.
type ProjectTracker struct {
	Lists map[string]string `json:"lists"`
}

// Proposals holds proposal document output settings.
type Proposals struct {
	OutputDir string `json:"outputDir"`
}

// Config is the full pipeline configuration document.
type Config struct {
	CRM                CRM            `json:"crm"`
	QualifiedThreshold int            `json:"qualifiedThreshold"`
	Comms              Comms          `json:"comms"`
	Secrets            Secrets        `json:"secrets"`
	ProjectTracker     ProjectTracker `json:"projectTracker"`
	Proposals          Proposals      `json:"proposals"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that every key the pipeline depends on is present.
// It runs at startup, before any operation, so a broken document fails
// the process instead of a mid-pipeline write.
func (c *Config) Validate() error {
	if c.CRM.DBPath == "" {
		return fmt.Errorf("missing crm.dbPath")
	}
	if c.QualifiedThreshold <= 0 {
		return fmt.Errorf("qualifiedThreshold must be positive")
	}
	if c.Comms.ChannelID == "" {
		return fmt.Errorf("missing comms.channelId")
	}
	if c.Secrets.SlackBotToken == "" {
		return fmt.Errorf("missing secrets.slackBotToken")
	}
	if c.Secrets.ClickupAPIToken == "" {
		return fmt.Errorf("missing secrets.clickupApiToken")
	}
	if _, ok := c.ProjectTracker.Lists[ServiceMixed]; !ok {
		return fmt.Errorf("projectTracker.lists must include a %q fallback", ServiceMixed)
	}
	if c.Proposals.OutputDir == "" {
		return fmt.Errorf("missing proposals.outputDir")
	}
	return nil
}

// ListForService resolves the tracker list id for a service type,
// falling back to the mixed list when the service has no dedicated one.
func (c *Config) ListForService(service string) string {
	if id, ok := c.ProjectTracker.Lists[service]; ok && id != "" {
		return id
	}
	return c.ProjectTracker.Lists[ServiceMixed]
}

// ValidServiceType reports whether service is one of the known types.
func ValidServiceType(service string) bool {
	for _, s := range ServiceTypes {
		if s == service {
			return true
		}
	}
	return false
}
