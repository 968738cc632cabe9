package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lmtd-agency/lmtd/internal/pipeline"
	"github.com/lmtd-agency/lmtd/internal/scoring"
	"github.com/lmtd-agency/lmtd/internal/store"
)

// pipelineTools holds the handlers' shared dependencies. Tool calls
// delegate to the same orchestrator the CLI uses; a missing-entity
// lookup is a tool error, not a protocol failure.
type pipelineTools struct {
	pipeline *pipeline.Pipeline
	store    *store.Store
}

// intArg extracts an integer argument from a tool request. JSON
// numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// ─── lmtd_ingest_lead ────────────────────────────────────────────────────────

func (t *pipelineTools) ingestLeadTool() mcp.Tool {
	return mcp.NewTool("lmtd_ingest_lead",
		mcp.WithDescription(
			"Record a new sales lead. Scores it from four signals, stores it "+
				"with its scoring audit record and announces it on the team channel. "+
				"Returns the new lead id.",
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("Contact name")),
		mcp.WithString("company", mcp.Required(), mcp.Description("Company name")),
		mcp.WithString("source", mcp.Description("Lead source channel"), mcp.DefaultString("slack")),
		mcp.WithString("email", mcp.Description("Contact email")),
		mcp.WithString("phone", mcp.Description("Contact phone")),
		mcp.WithString("services", mcp.Description("Requested services, comma-separated"), mcp.DefaultString("video")),
		mcp.WithNumber("budget", mcp.Description("Budget signal (0-30, default 20)")),
		mcp.WithNumber("timeline", mcp.Description("Timeline signal (0-30, default 15)")),
		mcp.WithNumber("fit", mcp.Description("Service fit signal (0-30, default 20)")),
		mcp.WithNumber("urgency", mcp.Description("Urgency signal (0-20, default 15)")),
		mcp.WithString("notes", mcp.Description("Free-text fit notes")),
		mcp.WithString("rationale", mcp.Description("Scoring rationale for the audit record")),
	)
}

func (t *pipelineTools) handleIngestLead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	company := req.GetString("company", "")
	if name == "" || company == "" {
		return mcp.NewToolResultError("'name' and 'company' are required"), nil
	}

	var services []string
	for _, s := range strings.Split(req.GetString("services", "video"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}

	id, err := t.pipeline.IngestLead(pipeline.IngestParams{
		Source:   req.GetString("source", "slack"),
		Name:     name,
		Company:  company,
		Email:    req.GetString("email", ""),
		Phone:    req.GetString("phone", ""),
		Services: services,
		Signals: scoring.Signals{
			Budget:   intArg(req, "budget", 20),
			Timeline: intArg(req, "timeline", 15),
			Fit:      intArg(req, "fit", 20),
			Urgency:  intArg(req, "urgency", 15),
		},
		Notes:     req.GetString("notes", ""),
		Rationale: req.GetString("rationale", ""),
	})
	if err != nil {
		if id != "" {
			return mcp.NewToolResultError(fmt.Sprintf("lead %s saved, but: %v", id, err)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Created lead " + id), nil
}

// ─── lmtd_draft_proposal ─────────────────────────────────────────────────────

func (t *pipelineTools) draftProposalTool() mcp.Tool {
	return mcp.NewTool("lmtd_draft_proposal",
		mcp.WithDescription(
			"Draft the tiered proposal document for a lead, render it to the "+
				"output directory and record it as pending approval. Returns the "+
				"new proposal id.",
		),
		mcp.WithString("lead_id", mcp.Required(), mcp.Description("Lead id (lead_...)")),
	)
}

func (t *pipelineTools) handleDraftProposal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	leadID := req.GetString("lead_id", "")
	if leadID == "" {
		return mcp.NewToolResultError("'lead_id' is required"), nil
	}

	id, err := t.pipeline.DraftProposal(leadID)
	if err != nil {
		if id != "" {
			return mcp.NewToolResultError(fmt.Sprintf("proposal %s saved, but: %v", id, err)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Created proposal " + id), nil
}

// ─── lmtd_kickoff_project ────────────────────────────────────────────────────

func (t *pipelineTools) kickoffTool() mcp.Tool {
	return mcp.NewTool("lmtd_kickoff_project",
		mcp.WithDescription(
			"Start a project for a lead: create the project record, open its "+
				"ClickUp task and announce the kickoff. Returns the new project id.",
		),
		mcp.WithString("lead_id", mcp.Required(), mcp.Description("Lead id (lead_...)")),
		mcp.WithString("proposal_id", mcp.Description("Optional proposal id to link")),
		mcp.WithString("service",
			mcp.Description("Service type"),
			mcp.DefaultString("mixed"),
			mcp.Enum("video", "branding", "web", "mixed"),
		),
		mcp.WithString("target_delivery", mcp.Description("Optional target delivery date")),
	)
}

func (t *pipelineTools) handleKickoff(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	leadID := req.GetString("lead_id", "")
	if leadID == "" {
		return mcp.NewToolResultError("'lead_id' is required"), nil
	}

	id, err := t.pipeline.Kickoff(pipeline.KickoffParams{
		LeadID:         leadID,
		ProposalID:     req.GetString("proposal_id", ""),
		Service:        req.GetString("service", "mixed"),
		TargetDelivery: req.GetString("target_delivery", ""),
	})
	if err != nil {
		if id != "" {
			return mcp.NewToolResultError(fmt.Sprintf("project %s saved, but: %v", id, err)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Created project " + id), nil
}

// ─── lmtd_daily_digest ───────────────────────────────────────────────────────

func (t *pipelineTools) dailyDigestTool() mcp.Tool {
	return mcp.NewTool("lmtd_daily_digest",
		mcp.WithDescription(
			"Post the daily project digest to the team channel. Read-only; "+
				"sends one message covering the most recently updated projects.",
		),
	)
}

func (t *pipelineTools) handleDailyDigest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.pipeline.DailyDigest(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Digest posted."), nil
}

// ─── lmtd_pipeline_status ────────────────────────────────────────────────────

func (t *pipelineTools) statusTool() mcp.Tool {
	return mcp.NewTool("lmtd_pipeline_status",
		mcp.WithDescription(
			"Inspect the pipeline: recent leads, recent projects, and projects "+
				"whose ClickUp task was never created (failed kickoff calls).",
		),
		mcp.WithNumber("limit", mcp.Description("Max rows per section (default: 20)")),
	)
}

func (t *pipelineTools) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 20)

	leads, err := t.store.RecentLeads(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projects, err := t.store.RecentProjects(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unlinked, err := t.store.UnlinkedProjects()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := map[string]any{
		"recent_leads":      leads,
		"recent_projects":   projects,
		"unlinked_projects": unlinked,
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding status: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
