package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbenliogludev/go-research-agent/internal/agent"
	"github.com/nbenliogludev/go-research-agent/internal/browser"
	"github.com/nbenliogludev/go-research-agent/internal/config"
	"github.com/nbenliogludev/go-research-agent/internal/llm"
	"github.com/nbenliogludev/go-research-agent/internal/observability"
	"github.com/nbenliogludev/go-research-agent/internal/results"
	"github.com/nbenliogludev/go-research-agent/internal/taskspec"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		browserMode string
		headless    bool
		noSave      bool
		apiKey      string
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "research-cli [query]",
		Short: "Autonomous web research agent",
		Long: `research-cli turns a natural-language research request into a structured
extraction task and drives a real browser to carry it out.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("browser") {
				cfg.Browser.Mode = browserMode
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}
			if noSave {
				cfg.Results.Save = false
			}
			if apiKey != "" {
				cfg.OpenAI.APIKey = apiKey
			}

			query := ""
			if len(args) == 1 {
				query = strings.TrimSpace(args[0])
			}
			if query == "" {
				query, err = promptQuery(cmd)
				if err != nil {
					return err
				}
			}

			return run(cmd.Context(), cfg, query, outFile)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&browserMode, "browser", "b", config.BrowserModePlaywright, "browser mode: playwright, cdp or sim")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser headless")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write results to disk")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "OpenAI API key (overrides env and config)")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "results filename (default research_<timestamp>.json)")

	return cmd
}

func promptQuery(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "What would you like me to research?\n> ")
	reader := bufio.NewReader(cmd.InOrStdin())
	raw, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", fmt.Errorf("empty query, nothing to research")
	}
	return query, nil
}

func run(ctx context.Context, cfg *config.Config, query, outFile string) error {
	log := observability.New(cfg.Logger)
	defer func() { _ = log.Sync() }()

	client, err := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.SchemaModel, cfg.OpenAI.ComputerModel)
	if err != nil {
		return err
	}

	fmt.Printf("Generating task configuration for: %s\n", query)
	gen := taskspec.NewGenerator(client, log)
	instructions, schema, taskCfg, err := gen.Generate(ctx, query)
	if err != nil {
		return err
	}
	fmt.Printf("Task: %s\n", taskCfg.TaskName)
	fmt.Printf("Search terms: %s\n", strings.Join(taskCfg.SearchTerms, ", "))

	exec, release, err := newExecutor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			log.Warn("browser release reported errors", zap.Error(err))
		}
	}()

	collab := llm.NewComputerUse(client, log)
	sup := agent.NewSupervisor(collab, cfg.Agent.MaxTurns, cfg.Agent.Timeout, log)

	fmt.Println("Starting research run...")
	rs := sup.Run(ctx, instructions, schema, exec)

	printSummary(rs, exec)

	if cfg.Results.Save {
		store := results.NewStore(cfg.Results.Dir)
		path, err := store.Save(rs, outFile)
		if err != nil {
			return err
		}
		fmt.Printf("Results saved to %s\n", path)
	}
	return nil
}

// newExecutor builds the configured browser backend plus its release func.
func newExecutor(ctx context.Context, cfg *config.Config, log *zap.Logger) (browser.Executor, func() error, error) {
	switch cfg.Browser.Mode {
	case config.BrowserModePlaywright:
		session, err := browser.NewSession(cfg.Browser, log)
		if err != nil {
			return nil, nil, err
		}
		exec := browser.NewPlaywrightExecutor(session, cfg.Browser.Width, cfg.Browser.Height, log)
		return exec, session.Close, nil
	case config.BrowserModeCDP:
		exec, err := browser.NewCDPExecutor(ctx, cfg.Browser, log)
		if err != nil {
			return nil, nil, err
		}
		return exec, exec.Close, nil
	case config.BrowserModeSim:
		exec := browser.NewSimExecutor(cfg.Browser.Width, cfg.Browser.Height, log)
		return exec, exec.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown browser mode %q", cfg.Browser.Mode)
	}
}

func printSummary(rs *taskspec.ResultSet, exec browser.Executor) {
	fmt.Println()
	fmt.Println("=== Research summary ===")
	fmt.Printf("Summary:  %s\n", rs.SearchSummary)
	fmt.Printf("Complete: %v\n", rs.SearchComplete)
	fmt.Printf("Items:    %d\n", len(rs.FoundItems))
	fmt.Printf("Turns:    %d\n", exec.TurnCount())
	for i, item := range rs.FoundItems {
		fmt.Printf("  %d. %v\n", i+1, item["title"])
		for k, v := range item {
			if k == "title" {
				continue
			}
			fmt.Printf("     %s: %v\n", k, v)
		}
	}
}
