package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		CRM:                CRM{DBPath: "/tmp/crm.db"},
		QualifiedThreshold: 60,
		Comms:              Comms{ChannelID: "C012ABC"},
		Secrets: Secrets{
			SlackBotToken:   "xoxb-test",
			ClickupAPIToken: "pk_test",
		},
		ProjectTracker: ProjectTracker{
			Lists: map[string]string{"video": "901", "mixed": "900"},
		},
		Proposals: Proposals{OutputDir: "/tmp/proposals"},
	}
}

func TestValidate_AcceptsCompleteDocument(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestValidate_MissingKeys(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"no db path", func(c *Config) { c.CRM.DBPath = "" }, "dbPath"},
		{"zero threshold", func(c *Config) { c.QualifiedThreshold = 0 }, "qualifiedThreshold"},
		{"no channel", func(c *Config) { c.Comms.ChannelID = "" }, "channelId"},
		{"no slack token", func(c *Config) { c.Secrets.SlackBotToken = "" }, "slackBotToken"},
		{"no clickup token", func(c *Config) { c.Secrets.ClickupAPIToken = "" }, "clickupApiToken"},
		{"no mixed list", func(c *Config) { delete(c.ProjectTracker.Lists, "mixed") }, "mixed"},
		{"no output dir", func(c *Config) { c.Proposals.OutputDir = "" }, "outputDir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	doc := `{
		"crm": {"dbPath": "/tmp/crm.db"},
		"qualifiedThreshold": 60,
		"comms": {"channelId": "C012ABC"},
		"secrets": {"slackBotToken": "xoxb-test", "clickupApiToken": "pk_test"},
		"projectTracker": {"lists": {"video": "901", "mixed": "900"}},
		"proposals": {"outputDir": "/tmp/proposals"}
	}`
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.QualifiedThreshold != 60 {
		t.Errorf("QualifiedThreshold = %d, want 60", cfg.QualifiedThreshold)
	}
	if cfg.Comms.ChannelID != "C012ABC" {
		t.Errorf("ChannelID = %q, want C012ABC", cfg.Comms.ChannelID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load() succeeded on a missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() succeeded on malformed JSON")
	}
}

func TestListForService_Fallback(t *testing.T) {
	cfg := validConfig()

	if got := cfg.ListForService("video"); got != "901" {
		t.Errorf("ListForService(video) = %q, want 901", got)
	}
	if got := cfg.ListForService("branding"); got != "900" {
		t.Errorf("ListForService(branding) = %q, want mixed fallback 900", got)
	}
}

func TestValidServiceType(t *testing.T) {
	for _, s := range []string{"video", "branding", "web", "mixed"} {
		if !ValidServiceType(s) {
			t.Errorf("ValidServiceType(%q) = false", s)
		}
	}
	if ValidServiceType("consulting") {
		t.Error("ValidServiceType(consulting) = true")
	}
}
