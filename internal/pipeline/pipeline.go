// Package pipeline orchestrates the sales pipeline: lead intake,
// proposal drafting, project kickoff and the daily digest.
//
// Every operation follows the same discipline: pure computation first,
// then the durable store write, then the external side effects. The
// store write is authoritative; Slack and ClickUp are advisory. When
// an external call fails after a commit, the operation returns the
// created entity's id alongside the error — the durable record stands
// and the caller can see exactly what was left behind.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lmtd-agency/lmtd/internal/config"
	"github.com/lmtd-agency/lmtd/internal/docgen"
	"github.com/lmtd-agency/lmtd/internal/scoring"
	"github.com/lmtd-agency/lmtd/internal/store"
)

// digestLimit bounds how many projects one digest reports.
const digestLimit = 20

// Notifier delivers one best-effort message to the team channel.
type Notifier interface {
	Post(text string) error
}

// TaskCreator creates one remote tracker task and returns its id.
// Implementations carry no idempotency key, so the pipeline calls it
// at most once per kickoff.
type TaskCreator interface {
	CreateTask(listID, name, description string) (string, error)
}

// Pipeline runs the four orchestrator operations against injected
// collaborators. Construct it once per invocation with New.
type Pipeline struct {
	store    *store.Store
	cfg      *config.Config
	notifier Notifier
	tracker  TaskCreator
	log      *logrus.Entry

	// render is swappable in tests; defaults to docgen.RenderPDF.
	render func(mdPath, pdfPath string) error
	// now is swappable in tests; defaults to the wall clock.
	now func() time.Time
}

// New wires a Pipeline from its collaborators.
func New(st *store.Store, cfg *config.Config, notifier Notifier, tracker TaskCreator) *Pipeline {
	return &Pipeline{
		store:    st,
		cfg:      cfg,
		notifier: notifier,
		tracker:  tracker,
		log:      logrus.WithField("component", "pipeline"),
		render:   docgen.RenderPDF,
		now:      time.Now,
	}
}

// ─── Ingest ──────────────────────────────────────────────────────────────────

// IngestParams holds the intake form for a new lead.
type IngestParams struct {
	Source    string
	Name      string
	Company   string
	Email     string
	Phone     string
	Services  []string
	Signals   scoring.Signals
	Notes     string
	Rationale string
}

// IngestLead scores the lead, persists it with its scoring audit
// record in one transaction, then announces it on the team channel.
// The returned lead id is valid even when the error is non-nil: a
// failed notification never unwinds the committed write.
func (p *Pipeline) IngestLead(params IngestParams) (string, error) {
	score := scoring.Score(params.Signals)
	status := scoring.Qualify(score, p.cfg.QualifiedThreshold)

	now := store.Now()
	lead := &store.Lead{
		ID:             store.NewID(store.PrefixLead),
		Source:         params.Source,
		Name:           params.Name,
		Company:        params.Company,
		Email:          params.Email,
		Phone:          params.Phone,
		Services:       store.StringList(params.Services),
		BudgetSignal:   strconv.Itoa(params.Signals.Budget),
		TimelineSignal: strconv.Itoa(params.Signals.Timeline),
		FitNotes:       params.Notes,
		Score:          score,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	rec := &store.ScoreRecord{
		ID:              store.NewID(store.PrefixLeadScore),
		LeadID:          lead.ID,
		BudgetScore:     params.Signals.Budget,
		TimelineScore:   params.Signals.Timeline,
		ServiceFitScore: params.Signals.Fit,
		UrgencyScore:    params.Signals.Urgency,
		TotalScore:      score,
		Rationale:       params.Rationale,
		CreatedAt:       now,
	}

	if err := p.store.InsertLead(lead, rec); err != nil {
		return "", fmt.Errorf("pipeline: ingest lead: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"lead":   lead.ID,
		"score":  score,
		"status": status,
	}).Info("lead ingested")

	msg := fmt.Sprintf("🧲 New lead: %s (%s) | score %d/100 | status: %s",
		params.Name, params.Company, score, status)
	if err := p.notifier.Post(msg); err != nil {
		p.log.WithField("lead", lead.ID).WithError(err).Warn("lead notification failed")
		return lead.ID, fmt.Errorf("pipeline: lead %s saved, notification failed: %w", lead.ID, err)
	}
	return lead.ID, nil
}

// ─── Proposal ────────────────────────────────────────────────────────────────

// DraftProposal builds the versioned offer document for a lead,
// renders it (degrading to a plain-text placeholder when the renderer
// is unavailable), persists the proposal row and announces it.
// NotFound aborts before any write or notification.
func (p *Pipeline) DraftProposal(leadID string) (string, error) {
	lead, err := p.store.GetLead(leadID)
	if err != nil {
		return "", fmt.Errorf("pipeline: draft proposal: %w", err)
	}

	if err := os.MkdirAll(p.cfg.Proposals.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("pipeline: creating output dir: %w", err)
	}

	propID := store.NewID(store.PrefixProposal)
	mdPath := filepath.Join(p.cfg.Proposals.OutputDir, propID+".md")
	pdfPath := filepath.Join(p.cfg.Proposals.OutputDir, propID+".pdf")

	body := proposalBody(lead, p.now().Format("2006-01-02"))
	if err := docgen.WriteMarkdown(mdPath, body); err != nil {
		return "", fmt.Errorf("pipeline: draft proposal: %w", err)
	}
	if err := p.render(mdPath, pdfPath); err != nil {
		return "", fmt.Errorf("pipeline: draft proposal: %w", err)
	}

	serviceMix, _ := json.Marshal(lead.Services)
	now := store.Now()
	prop := &store.Proposal{
		ID:           propID,
		LeadID:       lead.ID,
		Version:      1,
		Title:        "Proposal for " + lead.Company,
		MarkdownPath: mdPath,
		PDFPath:      pdfPath,
		ServiceMix:   string(serviceMix),
		ScopeSummary: "TBD",
		Assumptions:  "Standard assumptions",
		PricingJSON:  "{}",
		Status:       store.ProposalStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.store.InsertProposal(prop); err != nil {
		return "", fmt.Errorf("pipeline: draft proposal: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"proposal": propID,
		"lead":     lead.ID,
	}).Info("proposal drafted")

	msg := fmt.Sprintf("📄 Proposal draft ready for %s: %s (status: %s)",
		lead.Company, filepath.Base(pdfPath), store.ProposalStatusPending)
	if err := p.notifier.Post(msg); err != nil {
		p.log.WithField("proposal", propID).WithError(err).Warn("proposal notification failed")
		return propID, fmt.Errorf("pipeline: proposal %s saved, notification failed: %w", propID, err)
	}
	return propID, nil
}

// proposalBody renders the fixed three-option offer from lead fields.
func proposalBody(lead *store.Lead, date string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Proposal — %s\n\n", lead.Company)
	fmt.Fprintf(&b, "Client: %s (%s)\n", lead.Name, lead.Company)
	fmt.Fprintf(&b, "Date: %s\n\n", date)
	fmt.Fprintf(&b, "Services requested: %s\n\n", strings.Join(lead.Services, ", "))
	b.WriteString("## Option A — Good\nBaseline scope and delivery.\n\n")
	b.WriteString("## Option B — Better\nExpanded strategy + production support.\n\n")
	b.WriteString("## Option C — Best\nFull-service execution + optimization cycle.\n\n")
	b.WriteString("## Assumptions\n")
	b.WriteString("- Timely client feedback\n")
	b.WriteString("- Asset availability\n")
	b.WriteString("- Scope changes handled by change request\n\n")
	b.WriteString("Status: pending approval\n")
	return b.String()
}

// ─── Kickoff ─────────────────────────────────────────────────────────────────

// KickoffParams holds the inputs for starting a project.
type KickoffParams struct {
	LeadID string
	// ProposalID is optional and not validated against the lead;
	// linkage is flexible.
	ProposalID     string
	Service        string
	TargetDelivery string
}

// Kickoff creates the project record, then the remote tracker task,
// then links the two and announces the kickoff. The project row is
// committed before the tracker call: if that call fails, the returned
// project id identifies a durable row with no linked task, observable
// via the store's unlinked-projects query.
func (p *Pipeline) Kickoff(params KickoffParams) (string, error) {
	service := strings.ToLower(params.Service)
	if !config.ValidServiceType(service) {
		return "", fmt.Errorf("pipeline: unknown service type %q", params.Service)
	}
	listID := p.cfg.ListForService(service)

	lead, err := p.store.GetLead(params.LeadID)
	if err != nil {
		return "", fmt.Errorf("pipeline: kickoff: %w", err)
	}

	now := store.Now()
	proj := &store.Project{
		ID:             store.NewID(store.PrefixProject),
		LeadID:         lead.ID,
		ProposalID:     params.ProposalID,
		ClientName:     lead.Company,
		ServiceType:    service,
		Stage:          store.StageKickoff,
		Health:         store.HealthOnTrack,
		TargetDelivery: params.TargetDelivery,
		ClickupListID:  listID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := p.store.InsertProject(proj); err != nil {
		return "", fmt.Errorf("pipeline: kickoff: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"project": proj.ID,
		"lead":    lead.ID,
		"service": service,
	}).Info("project created")

	taskName := lead.Company + " — Kickoff"
	taskDesc := fmt.Sprintf("Lead: %s\nProject: %s\nService: %s", lead.Name, proj.ID, service)
	taskID, err := p.tracker.CreateTask(listID, taskName, taskDesc)
	if err != nil {
		p.log.WithField("project", proj.ID).WithError(err).Warn("tracker task creation failed")
		return proj.ID, fmt.Errorf("pipeline: project %s saved without tracker task: %w", proj.ID, err)
	}
	if err := p.store.SetProjectTaskID(proj.ID, taskID); err != nil {
		return proj.ID, fmt.Errorf("pipeline: kickoff: %w", err)
	}

	msg := fmt.Sprintf("🚀 Project kickoff created for %s in ClickUp (%s).", lead.Company, service)
	if err := p.notifier.Post(msg); err != nil {
		p.log.WithField("project", proj.ID).WithError(err).Warn("kickoff notification failed")
		return proj.ID, fmt.Errorf("pipeline: project %s saved, notification failed: %w", proj.ID, err)
	}
	return proj.ID, nil
}

// ─── Digest ──────────────────────────────────────────────────────────────────

// DailyDigest posts one summary message covering the most recently
// updated projects. Read-only with respect to the store.
func (p *Pipeline) DailyDigest() error {
	projects, err := p.store.RecentProjects(digestLimit)
	if err != nil {
		return fmt.Errorf("pipeline: daily digest: %w", err)
	}

	if len(projects) == 0 {
		if err := p.notifier.Post("📬 Daily digest: no active projects yet."); err != nil {
			return fmt.Errorf("pipeline: daily digest: %w", err)
		}
		return nil
	}

	lines := make([]string, 0, len(projects)+1)
	lines = append(lines, "📬 LMTD Daily Project Digest")
	for _, proj := range projects {
		line := fmt.Sprintf("• %s [%s] — %s / %s",
			proj.ClientName, proj.ServiceType, proj.Health, proj.Stage)
		if proj.TargetDelivery != "" {
			line += " / target " + proj.TargetDelivery
		}
		lines = append(lines, line)
	}
	if err := p.notifier.Post(strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("pipeline: daily digest: %w", err)
	}
	return nil
}

// IsNotFound reports whether err stems from a missing entity lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
