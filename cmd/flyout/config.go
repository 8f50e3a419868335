// ABOUTME: Environment-driven configuration for the flyout CLI and server.
// ABOUTME: Builds the agent client, step runner, sandbox client, and endpoint catalog from env vars.

package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/2389-research/flyout/agi"
	"github.com/2389-research/flyout/sandbox"
	"github.com/2389-research/flyout/workflow"
)

// defaultAGIBaseURL is the production agent service.
const defaultAGIBaseURL = "https://api.agi.tech/v1"

// envConfig is the environment-derived configuration shared by serve and run.
type envConfig struct {
	agiBaseURL   string
	agiAPIKey    string
	agiAgent     string
	retry        agi.RetryPolicy
	poll         agi.PollPolicy
	sandboxURL   string
	sandboxKey   string
	sandboxTmpl  string
	sandboxClean bool
	addr         string
	dbPath       string
	endpoints    workflow.Endpoints
}

// loadEnvConfig reads configuration from the environment, applying defaults.
func loadEnvConfig() envConfig {
	cfg := envConfig{
		agiBaseURL:   envOr("AGI_BASE_URL", defaultAGIBaseURL),
		agiAPIKey:    os.Getenv("AGI_API_KEY"),
		agiAgent:     envOr("AGI_AGENT_NAME", "agi-0"),
		retry:        agi.DefaultRetryPolicy(),
		poll:         agi.DefaultPollPolicy(),
		sandboxURL:   envOr("SANDBOX_API_URL", "http://localhost:3000/api/v1"),
		sandboxKey:   os.Getenv("SANDBOX_API_KEY"),
		sandboxTmpl:  envOr("SANDBOX_TEMPLATE", "flyout-workflow"),
		sandboxClean: envOr("SANDBOX_CLEANUP", "true") == "true",
		addr:         envOr("FLYOUT_ADDR", "127.0.0.1:8089"),
		dbPath:       envOr("FLYOUT_DB", "flyout.db"),
		endpoints:    workflow.DefaultEndpoints(),
	}

	if n := envInt("AGI_RETRIES"); n > 0 {
		cfg.retry.MaxAttempts = n
	}
	if d := envSeconds("AGI_RETRY_DELAY"); d > 0 {
		cfg.retry.Delay = d
	}
	if n := envInt("AGI_POLL_ATTEMPTS"); n > 0 {
		cfg.poll.MaxAttempts = n
	}
	if d := envSeconds("AGI_POLL_DELAY"); d > 0 {
		cfg.poll.Delay = d
	}

	if path := os.Getenv("FLYOUT_ENDPOINTS"); path != "" {
		endpoints, err := workflow.LoadEndpoints(path)
		if err != nil {
			log.Printf("endpoints file ignored path=%s error=%v", path, err)
		} else {
			cfg.endpoints = endpoints
		}
	}

	return cfg
}

// buildStepRunner selects the agent-backed runner when credentials exist,
// otherwise the local fallback strategy.
func buildStepRunner(cfg envConfig) workflow.StepRunner {
	if cfg.agiAPIKey == "" {
		log.Printf("AGI_API_KEY not set, using local workflow strategy")
		return &workflow.LocalRunner{}
	}
	client := agi.NewClient(agi.Config{
		BaseURL:   cfg.agiBaseURL,
		APIKey:    cfg.agiAPIKey,
		AgentName: cfg.agiAgent,
		Retry:     cfg.retry,
	})
	runner := workflow.NewAgentRunner(client)
	runner.Poll = cfg.poll
	return runner
}

// buildSandboxRunner wires the sandbox client over an in-process fallback.
func buildSandboxRunner(cfg envConfig) *sandbox.Runner {
	client := sandbox.NewClient(sandbox.Config{
		APIURL:   cfg.sandboxURL,
		APIKey:   cfg.sandboxKey,
		Template: cfg.sandboxTmpl,
		Cleanup:  cfg.sandboxClean,
	})
	runner := sandbox.NewRunner(client, inProcessRun(cfg))
	runner.PassEnv = map[string]string{
		"AGI_API_KEY":  cfg.agiAPIKey,
		"AGI_BASE_URL": cfg.agiBaseURL,
	}
	return runner
}

// inProcessRun returns a fallback that runs the pipeline in this process.
func inProcessRun(cfg envConfig) sandbox.Fallback {
	return func(ctx context.Context, p workflow.Params) *workflow.Result {
		pl := workflow.NewPipeline(buildStepRunner(cfg), workflow.DefaultSteps(cfg.endpoints))
		return pl.Run(ctx, p)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, ignoring", key, v)
		return 0
	}
	return n
}

func envSeconds(key string) time.Duration {
	return time.Duration(envInt(key)) * time.Second
}
