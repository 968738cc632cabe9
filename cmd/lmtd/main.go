// LMTD: sales pipeline automation for a small creative agency.
//
// Moves a lead through a fixed pipeline — intake, scoring, proposal
// drafting, project kickoff, status reporting — persisting state in a
// local SQLite file and mirroring key events to Slack and ClickUp.
//
// Usage:
//
//	lmtd init-store      Initialize the local database
//	lmtd ingest-lead     Score and record a new lead
//	lmtd draft-proposal  Generate a proposal document for a lead
//	lmtd kickoff         Start a project and create its tracker task
//	lmtd daily-digest    Post a summary of recent projects
//	lmtd serve           Expose the pipeline as MCP tools (stdio)
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/lmtd-agency/lmtd/internal/clickup"
	"github.com/lmtd-agency/lmtd/internal/config"
	"github.com/lmtd-agency/lmtd/internal/pipeline"
	"github.com/lmtd-agency/lmtd/internal/scoring"
	lmtdserver "github.com/lmtd-agency/lmtd/internal/server"
	"github.com/lmtd-agency/lmtd/internal/slack"
	"github.com/lmtd-agency/lmtd/internal/store"
)

func main() {
	logrus.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init-store":
		err = runInitStore(os.Args[2:])
	case "ingest-lead":
		err = runIngestLead(os.Args[2:])
	case "draft-proposal":
		err = runDraftProposal(os.Args[2:])
	case "kickoff":
		err = runKickoff(os.Args[2:])
	case "daily-digest":
		err = runDailyDigest(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("lmtd v%s\n", lmtdserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration, opens the store and wires the
// pipeline. The returned close function must be deferred.
func setup(configPath string) (*pipeline.Pipeline, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.CRM.DBPath)
	if err != nil {
		return nil, nil, err
	}
	notifier := slack.New(cfg.Secrets.SlackBotToken, cfg.Comms.ChannelID)
	tracker := clickup.New(cfg.Secrets.ClickupAPIToken)
	return pipeline.New(st, cfg, notifier, tracker), func() { _ = st.Close() }, nil
}

// emit prints a created identifier to stdout. When id is non-empty but
// err is non-nil, the durable record exists while a downstream side
// effect failed — the id is still printed so the partial state stays
// addressable, and the error makes the invocation exit non-zero.
func emit(id string, err error) error {
	if id != "" {
		fmt.Println(id)
	}
	return err
}

func runInitStore(args []string) error {
	fs := flag.NewFlagSet("init-store", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "path to the configuration file")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.CRM.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	fmt.Fprintf(os.Stderr, "Store initialized at %s\n", cfg.CRM.DBPath)
	return nil
}

func runIngestLead(args []string) error {
	fs := flag.NewFlagSet("ingest-lead", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "path to the configuration file")
	source := fs.String("source", "slack", "lead source channel")
	name := fs.String("name", "", "contact name (required)")
	company := fs.String("company", "", "company name (required)")
	email := fs.String("email", "", "contact email")
	phone := fs.String("phone", "", "contact phone")
	services := fs.String("services", "video", "requested services, comma-separated")
	budget := fs.Int("budget", 20, "budget signal (0-30)")
	timeline := fs.Int("timeline", 15, "timeline signal (0-30)")
	fit := fs.Int("fit", 20, "service fit signal (0-30)")
	urgency := fs.Int("urgency", 15, "urgency signal (0-20)")
	notes := fs.String("notes", "", "free-text fit notes")
	rationale := fs.String("rationale", "", "scoring rationale")
	_ = fs.Parse(args)

	if *name == "" || *company == "" {
		return fmt.Errorf("ingest-lead: -name and -company are required")
	}

	p, closeStore, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer closeStore()

	id, err := p.IngestLead(pipeline.IngestParams{
		Source:    *source,
		Name:      *name,
		Company:   *company,
		Email:     *email,
		Phone:     *phone,
		Services:  splitServices(*services),
		Signals:   scoring.Signals{Budget: *budget, Timeline: *timeline, Fit: *fit, Urgency: *urgency},
		Notes:     *notes,
		Rationale: *rationale,
	})
	return emit(id, err)
}

func runDraftProposal(args []string) error {
	fs := flag.NewFlagSet("draft-proposal", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "path to the configuration file")
	leadID := fs.String("lead", "", "lead id (required)")
	_ = fs.Parse(args)

	if *leadID == "" {
		return fmt.Errorf("draft-proposal: -lead is required")
	}

	p, closeStore, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer closeStore()

	id, err := p.DraftProposal(*leadID)
	return emit(id, err)
}

func runKickoff(args []string) error {
	fs := flag.NewFlagSet("kickoff", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "path to the configuration file")
	leadID := fs.String("lead", "", "lead id (required)")
	proposalID := fs.String("proposal", "", "proposal id (optional)")
	service := fs.String("service", "mixed", "service type: video, branding, web or mixed")
	targetDelivery := fs.String("target-delivery", "", "target delivery date (optional)")
	_ = fs.Parse(args)

	if *leadID == "" {
		return fmt.Errorf("kickoff: -lead is required")
	}

	p, closeStore, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer closeStore()

	id, err := p.Kickoff(pipeline.KickoffParams{
		LeadID:         *leadID,
		ProposalID:     *proposalID,
		Service:        *service,
		TargetDelivery: *targetDelivery,
	})
	return emit(id, err)
}

func runDailyDigest(args []string) error {
	fs := flag.NewFlagSet("daily-digest", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "path to the configuration file")
	_ = fs.Parse(args)

	p, closeStore, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer closeStore()

	return p.DailyDigest()
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "path to the configuration file")
	_ = fs.Parse(args)

	s, cleanup, err := lmtdserver.New(*configPath)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return mcpserver.ServeStdio(s)
}

func splitServices(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `LMTD v%s — sales pipeline automation

Usage:
  lmtd init-store      Initialize the local database
  lmtd ingest-lead     Score and record a new lead
  lmtd draft-proposal  Generate a proposal document for a lead
  lmtd kickoff         Start a project and create its tracker task
  lmtd daily-digest    Post a summary of recent projects
  lmtd serve           Expose the pipeline as MCP tools (stdio)

Every command reads its settings from config.json (override with
-config). Run "lmtd <command> -h" for the command's flags.
`, lmtdserver.Version)
}
