// Package store implements durable persistence for the sales pipeline.
//
// It uses SQLite as the single source of truth for leads, score
// records, proposals and projects. All other components read and write
// through it; the store never calls outward.
package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sqlx.Open

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("store: not found")

// Entity id prefixes. Identifiers are generated by the caller, so an
// id is known before its row exists and can be referenced in the same
// operation's side effects.
const (
	PrefixLead      = "lead"
	PrefixLeadScore = "ls"
	PrefixProposal  = "prop"
	PrefixProject   = "proj"
)

// Proposal and project lifecycle values.
const (
	ProposalStatusPending = "pending_approval"
	StageKickoff          = "kickoff"
	HealthOnTrack         = "on_track"
)

// NewID returns a fresh identifier of the form "<prefix>_<10 hex>".
// Collision probability is negligible for the volumes involved.
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + "_" + hex.EncodeToString(u[:])[:10]
}

// Now returns the timestamp format used for every *_at column.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// StringList is a []string persisted as a JSON array in a TEXT column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("store: cannot scan %T into StringList", src)
	}
}

// ─── Types ───────────────────────────────────────────────────────────────────

// Lead is a prospective client inquiry, the root of the pipeline.
type Lead struct {
	ID             string     `db:"id" json:"id"`
	Source         string     `db:"source" json:"source"`
	Name           string     `db:"name" json:"name"`
	Company        string     `db:"company" json:"company"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	Services       StringList `db:"services_requested" json:"services_requested"`
	BudgetSignal   string     `db:"budget_signal" json:"budget_signal"`
	TimelineSignal string     `db:"timeline_signal" json:"timeline_signal"`
	FitNotes       string     `db:"fit_notes" json:"fit_notes"`
	Score          int        `db:"score" json:"score"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      string     `db:"created_at" json:"created_at"`
	UpdatedAt      string     `db:"updated_at" json:"updated_at"`
}

// ScoreRecord is one append-only audit entry of a lead scoring pass.
// Rows are never mutated after creation.
type ScoreRecord struct {
	ID              string `db:"id" json:"id"`
	LeadID          string `db:"lead_id" json:"lead_id"`
	BudgetScore     int    `db:"budget_score" json:"budget_score"`
	TimelineScore   int    `db:"timeline_score" json:"timeline_score"`
	ServiceFitScore int    `db:"service_fit_score" json:"service_fit_score"`
	UrgencyScore    int    `db:"urgency_score" json:"urgency_score"`
	TotalScore      int    `db:"total_score" json:"total_score"`
	Rationale       string `db:"rationale" json:"rationale"`
	CreatedAt       string `db:"created_at" json:"created_at"`
}

// Proposal is a versioned offer document tied to one lead. Each
// version is a new row, never an in-place edit.
type Proposal struct {
	ID           string `db:"id" json:"id"`
	LeadID       string `db:"lead_id" json:"lead_id"`
	Version      int    `db:"version" json:"version"`
	Title        string `db:"title" json:"title"`
	MarkdownPath string `db:"markdown_path" json:"markdown_path"`
	PDFPath      string `db:"pdf_path" json:"pdf_path"`
	ServiceMix   string `db:"service_mix" json:"service_mix"`
	ScopeSummary string `db:"scope_summary" json:"scope_summary"`
	Assumptions  string `db:"assumptions" json:"assumptions"`
	PricingJSON  string `db:"pricing_json" json:"pricing_json"`
	Status       string `db:"status" json:"status"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	UpdatedAt    string `db:"updated_at" json:"updated_at"`
}

// Project is the execution record created at kickoff. ClickupTaskID is
// attached in a second write after the insert, so a project row with
// an empty task id is a valid, queryable state: it means the external
// task was never created (or not yet).
type Project struct {
	ID             string `db:"id" json:"id"`
	LeadID         string `db:"lead_id" json:"lead_id"`
	ProposalID     string `db:"proposal_id" json:"proposal_id"`
	ClientName     string `db:"client_name" json:"client_name"`
	ServiceType    string `db:"service_type" json:"service_type"`
	Stage          string `db:"stage" json:"stage"`
	Health         string `db:"health" json:"health"`
	TargetDelivery string `db:"target_delivery" json:"target_delivery"`
	ClickupListID  string `db:"clickup_list_id" json:"clickup_list_id"`
	ClickupTaskID  string `db:"clickup_task_id" json:"clickup_task_id"`
	CreatedAt      string `db:"created_at" json:"created_at"`
	UpdatedAt      string `db:"updated_at" json:"updated_at"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path, applies
// pragmas and runs the idempotent migration.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS leads (
			id                 TEXT PRIMARY KEY,
			source             TEXT NOT NULL,
			name               TEXT NOT NULL,
			company            TEXT NOT NULL,
			email              TEXT NOT NULL DEFAULT '',
			phone              TEXT NOT NULL DEFAULT '',
			services_requested TEXT NOT NULL DEFAULT '[]',
			budget_signal      TEXT NOT NULL DEFAULT '',
			timeline_signal    TEXT NOT NULL DEFAULT '',
			fit_notes          TEXT NOT NULL DEFAULT '',
			score              INTEGER NOT NULL,
			status             TEXT NOT NULL,
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS lead_scores (
			id                TEXT PRIMARY KEY,
			lead_id           TEXT NOT NULL,
			budget_score      INTEGER NOT NULL,
			timeline_score    INTEGER NOT NULL,
			service_fit_score INTEGER NOT NULL,
			urgency_score     INTEGER NOT NULL,
			total_score       INTEGER NOT NULL,
			rationale         TEXT NOT NULL DEFAULT '',
			created_at        TEXT NOT NULL,
			FOREIGN KEY (lead_id) REFERENCES leads(id)
		);

		CREATE TABLE IF NOT EXISTS proposals (
			id            TEXT PRIMARY KEY,
			lead_id       TEXT NOT NULL,
			version       INTEGER NOT NULL DEFAULT 1,
			title         TEXT NOT NULL,
			markdown_path TEXT NOT NULL DEFAULT '',
			pdf_path      TEXT NOT NULL DEFAULT '',
			service_mix   TEXT NOT NULL DEFAULT '',
			scope_summary TEXT NOT NULL DEFAULT '',
			assumptions   TEXT NOT NULL DEFAULT '',
			pricing_json  TEXT NOT NULL DEFAULT '{}',
			status        TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL,
			FOREIGN KEY (lead_id) REFERENCES leads(id)
		);

		CREATE TABLE IF NOT EXISTS projects (
			id               TEXT PRIMARY KEY,
			lead_id          TEXT NOT NULL,
			proposal_id      TEXT NOT NULL DEFAULT '',
			client_name      TEXT NOT NULL,
			service_type     TEXT NOT NULL,
			stage            TEXT NOT NULL,
			health           TEXT NOT NULL,
			target_delivery  TEXT NOT NULL DEFAULT '',
			clickup_list_id  TEXT NOT NULL DEFAULT '',
			clickup_task_id  TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL,
			FOREIGN KEY (lead_id) REFERENCES leads(id)
		);

		CREATE INDEX IF NOT EXISTS idx_scores_lead      ON lead_scores(lead_id);
		CREATE INDEX IF NOT EXISTS idx_proposals_lead   ON proposals(lead_id);
		CREATE INDEX IF NOT EXISTS idx_projects_lead    ON projects(lead_id);
		CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Leads ───────────────────────────────────────────────────────────────────

// InsertLead persists a lead together with its scoring audit record in
// one transaction: both rows persist or neither does.
func (s *Store) InsertLead(lead *Lead, rec *ScoreRecord) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExec(`
		INSERT INTO leads (id, source, name, company, email, phone, services_requested,
		                   budget_signal, timeline_signal, fit_notes, score, status, created_at, updated_at)
		VALUES (:id, :source, :name, :company, :email, :phone, :services_requested,
		        :budget_signal, :timeline_signal, :fit_notes, :score, :status, :created_at, :updated_at)`,
		lead,
	); err != nil {
		return fmt.Errorf("store: insert lead: %w", err)
	}

	if _, err := tx.NamedExec(`
		INSERT INTO lead_scores (id, lead_id, budget_score, timeline_score, service_fit_score,
		                         urgency_score, total_score, rationale, created_at)
		VALUES (:id, :lead_id, :budget_score, :timeline_score, :service_fit_score,
		        :urgency_score, :total_score, :rationale, :created_at)`,
		rec,
	); err != nil {
		return fmt.Errorf("store: insert score record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// InsertScoreRecord appends a standalone scoring audit entry for an
// existing lead.
func (s *Store) InsertScoreRecord(rec *ScoreRecord) error {
	if _, err := s.db.NamedExec(`
		INSERT INTO lead_scores (id, lead_id, budget_score, timeline_score, service_fit_score,
		                         urgency_score, total_score, rationale, created_at)
		VALUES (:id, :lead_id, :budget_score, :timeline_score, :service_fit_score,
		        :urgency_score, :total_score, :rationale, :created_at)`,
		rec,
	); err != nil {
		return fmt.Errorf("store: insert score record: %w", err)
	}
	return nil
}

// GetLead retrieves a lead by id, returning ErrNotFound if absent.
func (s *Store) GetLead(id string) (*Lead, error) {
	var lead Lead
	err := s.db.Get(&lead, `SELECT * FROM leads WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: lead %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get lead: %w", err)
	}
	return &lead, nil
}

// ScoreRecordsForLead returns the scoring audit trail for a lead,
// oldest first.
func (s *Store) ScoreRecordsForLead(leadID string) ([]ScoreRecord, error) {
	var recs []ScoreRecord
	if err := s.db.Select(&recs,
		`SELECT * FROM lead_scores WHERE lead_id = ? ORDER BY created_at ASC, id ASC`, leadID,
	); err != nil {
		return nil, fmt.Errorf("store: score records: %w", err)
	}
	return recs, nil
}

// RecentLeads returns the most recently updated leads, capped at limit.
func (s *Store) RecentLeads(limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 20
	}
	var leads []Lead
	if err := s.db.Select(&leads,
		`SELECT * FROM leads ORDER BY updated_at DESC, id ASC LIMIT ?`, limit,
	); err != nil {
		return nil, fmt.Errorf("store: recent leads: %w", err)
	}
	return leads, nil
}

// ─── Proposals ───────────────────────────────────────────────────────────────

// InsertProposal persists a new proposal version.
func (s *Store) InsertProposal(p *Proposal) error {
	if _, err := s.db.NamedExec(`
		INSERT INTO proposals (id, lead_id, version, title, markdown_path, pdf_path,
		                       service_mix, scope_summary, assumptions, pricing_json, status, created_at, updated_at)
		VALUES (:id, :lead_id, :version, :title, :markdown_path, :pdf_path,
		        :service_mix, :scope_summary, :assumptions, :pricing_json, :status, :created_at, :updated_at)`,
		p,
	); err != nil {
		return fmt.Errorf("store: insert proposal: %w", err)
	}
	return nil
}

// GetProposal retrieves a proposal by id, returning ErrNotFound if absent.
func (s *Store) GetProposal(id string) (*Proposal, error) {
	var p Proposal
	err := s.db.Get(&p, `SELECT * FROM proposals WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: proposal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get proposal: %w", err)
	}
	return &p, nil
}

// ─── Projects ────────────────────────────────────────────────────────────────

// InsertProject persists a new project row. The ClickUp task id is
// attached later via SetProjectTaskID; the row is valid without it.
func (s *Store) InsertProject(p *Project) error {
	if _, err := s.db.NamedExec(`
		INSERT INTO projects (id, lead_id, proposal_id, client_name, service_type, stage, health,
		                      target_delivery, clickup_list_id, clickup_task_id, created_at, updated_at)
		VALUES (:id, :lead_id, :proposal_id, :client_name, :service_type, :stage, :health,
		        :target_delivery, :clickup_list_id, :clickup_task_id, :created_at, :updated_at)`,
		p,
	); err != nil {
		return fmt.Errorf("store: insert project: %w", err)
	}
	return nil
}

// SetProjectTaskID links a project to its external tracker task. This
// is the second phase of the two-phase kickoff write.
func (s *Store) SetProjectTaskID(projectID, taskID string) error {
	res, err := s.db.Exec(
		`UPDATE projects SET clickup_task_id = ?, updated_at = ? WHERE id = ?`,
		taskID, Now(), projectID,
	)
	if err != nil {
		return fmt.Errorf("store: set project task id: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: project %s: %w", projectID, ErrNotFound)
	}
	return nil
}

// GetProject retrieves a project by id, returning ErrNotFound if absent.
func (s *Store) GetProject(id string) (*Project, error) {
	var p Project
	err := s.db.Get(&p, `SELECT * FROM projects WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	return &p, nil
}

// RecentProjects returns the most recently updated projects, capped at
// limit (newest first).
func (s *Store) RecentProjects(limit int) ([]Project, error) {
	if limit <= 0 {
		limit = 20
	}
	var projects []Project
	if err := s.db.Select(&projects,
		`SELECT * FROM projects ORDER BY updated_at DESC, id ASC LIMIT ?`, limit,
	); err != nil {
		return nil, fmt.Errorf("store: recent projects: %w", err)
	}
	return projects, nil
}

// UnlinkedProjects returns projects whose external task was never
// created — the observable partial state after a failed kickoff call.
func (s *Store) UnlinkedProjects() ([]Project, error) {
	var projects []Project
	if err := s.db.Select(&projects,
		`SELECT * FROM projects WHERE clickup_task_id = '' ORDER BY updated_at DESC`,
	); err != nil {
		return nil, fmt.Errorf("store: unlinked projects: %w", err)
	}
	return projects, nil
}
