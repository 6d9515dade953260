package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nbenliogludev/go-research-agent/internal/agent"
	"github.com/nbenliogludev/go-research-agent/internal/browser"
	"github.com/nbenliogludev/go-research-agent/internal/config"
	"github.com/nbenliogludev/go-research-agent/internal/llm"
	"github.com/nbenliogludev/go-research-agent/internal/observability"
	"github.com/nbenliogludev/go-research-agent/internal/taskspec"
)

// TestResearchEndToEnd runs a full query through schema generation and the
// browser-driving loop against the live OpenAI API. Costs real money and
// minutes; only runs with a key and without -short.
func TestResearchEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e in short mode")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY is not set")
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.OpenAI.APIKey = apiKey
	cfg.Browser.Headless = true
	cfg.Agent.Timeout = 5 * time.Minute

	log := observability.New(cfg.Logger)
	defer func() { _ = log.Sync() }()

	client, err := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.SchemaModel, cfg.OpenAI.ComputerModel)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Minute)
	defer cancel()

	gen := taskspec.NewGenerator(client, log)
	instructions, schema, taskCfg, err := gen.Generate(ctx, "find the price of a margherita pizza")
	if err != nil {
		t.Fatalf("generate task: %v", err)
	}
	if len(taskCfg.SearchTerms) == 0 {
		t.Fatal("no search terms generated")
	}

	session, err := browser.NewSession(cfg.Browser, log)
	if err != nil {
		t.Fatalf("start browser: %v", err)
	}
	defer func() { _ = session.Close() }()

	exec := browser.NewPlaywrightExecutor(session, cfg.Browser.Width, cfg.Browser.Height, log)
	if err := exec.Navigate(ctx, "https://duckduckgo.com"); err != nil {
		t.Fatalf("open duckduckgo: %v", err)
	}

	collab := llm.NewComputerUse(client, log)
	sup := agent.NewSupervisor(collab, cfg.Agent.MaxTurns, cfg.Agent.Timeout, log)

	rs := sup.Run(ctx, instructions, schema, exec)
	if rs == nil {
		t.Fatal("run returned no result set")
	}
	t.Logf("summary: %s (complete=%v, items=%d, turns=%d)",
		rs.SearchSummary, rs.SearchComplete, len(rs.FoundItems), exec.TurnCount())
	if exec.TurnCount() == 0 {
		t.Error("agent never took a screenshot")
	}
}
