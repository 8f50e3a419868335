// ABOUTME: CLI entrypoint for the flyout workflow orchestrator with serve and run modes.
// ABOUTME: Wires together the agent client, pipeline, sandbox runner, store, web server, and TUI.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/flyout/report"
	"github.com/2389-research/flyout/store"
	"github.com/2389-research/flyout/tui"
	"github.com/2389-research/flyout/web"
	"github.com/2389-research/flyout/workflow"
)

var version = "dev"

func main() {
	loadDotEnv(".env")

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "run":
		os.Exit(runOnce(os.Args[2:]))
	case "version":
		fmt.Printf("flyout %s\n", version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

func printUsage(w *os.File) {
	fmt.Fprintf(w, `flyout - travel workflow orchestrator

Usage:
  flyout serve              Start the HTTP server
  flyout run [flags]        Run one workflow from the terminal
  flyout version            Print version

Run flags:
  -from, -to, -depart, -return, -eat, -lodging, -travelers
  -plain                    No TUI; print the result as one JSON line
  -params-env               Read parameters from WORKFLOW_PARAMS (JSON)

Environment:
  AGI_API_KEY, AGI_BASE_URL, AGI_AGENT_NAME, AGI_RETRIES, AGI_RETRY_DELAY,
  AGI_POLL_ATTEMPTS, AGI_POLL_DELAY, SANDBOX_API_URL, SANDBOX_API_KEY,
  SANDBOX_TEMPLATE, SANDBOX_CLEANUP, FLYOUT_ADDR, FLYOUT_DB, FLYOUT_ENDPOINTS
`)
}

// runServe starts the HTTP server. Workflows submitted over the API run
// through the sandbox runner, which falls back to in-process execution.
func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (overrides FLYOUT_ADDR)")
	_ = fs.Parse(args)

	cfg := loadEnvConfig()
	if *addr != "" {
		cfg.addr = *addr
	}

	st, err := store.Open(cfg.dbPath)
	if err != nil {
		log.Printf("open store failed path=%s error=%v", cfg.dbPath, err)
		return 1
	}
	defer st.Close()

	runner := buildSandboxRunner(cfg)
	srv, err := web.NewServer(web.ServerConfig{
		Addr:   cfg.addr,
		Runner: web.RunnerFunc(runner.Run),
		Store:  st,
	})
	if err != nil {
		log.Printf("server setup failed: %v", err)
		return 1
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Printf("server stopped: %v", err)
		return 1
	}
	return 0
}

// runOnce executes a single workflow from the terminal, with the TUI by
// default or -plain for machine-readable output.
func runOnce(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	from := fs.String("from", "", "origin airport or city")
	to := fs.String("to", "", "destination (default SFO)")
	depart := fs.String("depart", "", "departure date YYYY-MM-DD")
	ret := fs.String("return", "", "return date YYYY-MM-DD (optional)")
	eat := fs.String("eat", "", "eat mode: out or in")
	lodging := fs.String("lodging", "", "lodging: airbnb or marriott")
	travelers := fs.Int("travelers", 0, "number of travelers")
	plain := fs.Bool("plain", false, "no TUI; print result as one JSON line")
	paramsEnv := fs.Bool("params-env", false, "read parameters from WORKFLOW_PARAMS")
	_ = fs.Parse(args)

	var p workflow.Params
	if *paramsEnv {
		if err := json.Unmarshal([]byte(os.Getenv("WORKFLOW_PARAMS")), &p); err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid WORKFLOW_PARAMS: %v\n", err)
			return 2
		}
	} else {
		p = workflow.Params{
			From:         *from,
			To:           *to,
			DepartDate:   *depart,
			ReturnDate:   *ret,
			EatMode:      *eat,
			Lodging:      *lodging,
			NumTravelers: *travelers,
		}
	}
	if err := p.Normalize(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	cfg := loadEnvConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pl := workflow.NewPipeline(buildStepRunner(cfg), workflow.DefaultSteps(cfg.endpoints))

	var result *workflow.Result
	if *plain {
		result = pl.Run(ctx, p)
		encoded, err := json.Marshal(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: encode result: %v\n", err)
			return 1
		}
		fmt.Println(string(encoded))
	} else {
		var err error
		result, err = runWithTUI(ctx, pl, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Print(report.Markdown(result))
	}

	saveResult(cfg, result)

	if result.Succeeded() < len(result.Timeline) {
		return 1
	}
	return 0
}

// runWithTUI drives the pipeline under the Bubble Tea progress view.
func runWithTUI(ctx context.Context, pl *workflow.Pipeline, p workflow.Params) (*workflow.Result, error) {
	names := make([]string, len(pl.Steps))
	for i, def := range pl.Steps {
		names[i] = def.Name
	}

	program := tea.NewProgram(tui.NewModel(names))
	bridge := tui.NewEventBridge(program.Send)
	pl.EventHandler = bridge.HandleEvent

	go func() {
		cmd := tui.RunWorkflowCmd(ctx, func(ctx context.Context, p workflow.Params) *workflow.Result {
			return pl.Run(ctx, p)
		}, p)
		program.Send(cmd())
	}()

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	model, ok := final.(tui.Model)
	if !ok || model.Result() == nil {
		return nil, fmt.Errorf("workflow interrupted before completion")
	}
	return model.Result(), nil
}

// saveResult persists the run when a database is configured. Failures are
// logged, not fatal; the result was already shown.
func saveResult(cfg envConfig, result *workflow.Result) {
	st, err := store.Open(cfg.dbPath)
	if err != nil {
		log.Printf("store unavailable path=%s error=%v", cfg.dbPath, err)
		return
	}
	defer st.Close()
	if err := st.Save(result); err != nil {
		log.Printf("save result failed id=%s error=%v", result.WorkflowID, err)
	}
}
