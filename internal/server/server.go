// Package server exposes the pipeline operations as MCP tools so the
// agency's AI assistant can drive lead intake, proposal drafting,
// kickoff and the digest over stdio.
//
// This is the composition root for "lmtd serve": it loads the
// configuration, opens the store, wires the concrete Slack and ClickUp
// clients into the pipeline and registers one tool per operation. No
// business logic lives here.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/lmtd-agency/lmtd/internal/clickup"
	"github.com/lmtd-agency/lmtd/internal/config"
	"github.com/lmtd-agency/lmtd/internal/pipeline"
	"github.com/lmtd-agency/lmtd/internal/slack"
	"github.com/lmtd-agency/lmtd/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all pipeline tools registered.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(configPath string) (*server.MCPServer, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, noop, err
	}
	st, err := store.Open(cfg.CRM.DBPath)
	if err != nil {
		return nil, noop, err
	}

	notifier := slack.New(cfg.Secrets.SlackBotToken, cfg.Comms.ChannelID)
	tracker := clickup.New(cfg.Secrets.ClickupAPIToken)
	p := pipeline.New(st, cfg, notifier, tracker)

	s := server.NewMCPServer(
		"lmtd",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	t := &pipelineTools{pipeline: p, store: st}
	s.AddTool(t.ingestLeadTool(), t.handleIngestLead)
	s.AddTool(t.draftProposalTool(), t.handleDraftProposal)
	s.AddTool(t.kickoffTool(), t.handleKickoff)
	s.AddTool(t.dailyDigestTool(), t.handleDailyDigest)
	s.AddTool(t.statusTool(), t.handleStatus)

	return s, func() { _ = st.Close() }, nil
}

func noop() {}
