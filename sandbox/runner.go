// ABOUTME: Runs a whole workflow inside an isolated sandbox workspace, with local fallback.
// ABOUTME: Creates the workspace, waits for ready, execs the run command, and scans output for the result JSON.

package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/flyout/workflow"
)

const (
	// readyWait bounds how long a workspace may take to reach running.
	readyWait = 2 * time.Minute
	// readyInterval is the status poll cadence during the ready wait.
	readyInterval = 2 * time.Second
	// runCommand executes the workflow inside the workspace; parameters are
	// passed through the WORKFLOW_PARAMS environment variable.
	runCommand = "flyout run --plain --params-env"
)

// Fallback executes the workflow in-process when the sandbox path is
// unavailable or fails.
type Fallback func(ctx context.Context, p workflow.Params) *workflow.Result

// Runner executes workflows in sandbox workspaces. When the client is not
// configured, or any sandbox API call fails, the run falls back to in-process
// execution so a broken sandbox never loses a workflow.
type Runner struct {
	Client *Client
	// PassEnv is copied into the workspace environment, for the agent
	// credentials the in-workspace run needs.
	PassEnv map[string]string
	// Fallback must be non-nil.
	Fallback Fallback
}

// NewRunner creates a sandbox runner over the client and fallback.
func NewRunner(client *Client, fallback Fallback) *Runner {
	return &Runner{Client: client, Fallback: fallback}
}

// Run executes the workflow in a fresh workspace and returns its Result.
func (r *Runner) Run(ctx context.Context, p workflow.Params) *workflow.Result {
	if r.Client == nil || !r.Client.Configured() {
		log.Printf("sandbox not configured, running workflow in-process")
		return r.Fallback(ctx, p)
	}

	result, err := r.runRemote(ctx, p)
	if err != nil {
		log.Printf("sandbox run failed, falling back to in-process: %v", err)
		return r.Fallback(ctx, p)
	}
	return result
}

func (r *Runner) runRemote(ctx context.Context, p workflow.Params) (*workflow.Result, error) {
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	env := map[string]string{"WORKFLOW_PARAMS": string(encoded)}
	for k, v := range r.PassEnv {
		env[k] = v
	}

	name := "flyout-" + uuid.NewString()[:8]
	id, err := r.Client.CreateWorkspace(ctx, name, env)
	if err != nil {
		return nil, err
	}
	log.Printf("sandbox workspace created id=%s", id)

	if r.Client.cfg.Cleanup {
		defer func() {
			if err := r.Client.DeleteWorkspace(context.WithoutCancel(ctx), id); err != nil {
				log.Printf("sandbox cleanup failed id=%s error=%v", id, err)
			} else {
				log.Printf("sandbox workspace deleted id=%s", id)
			}
		}()
	}

	if err := r.Client.WaitReady(ctx, id, readyWait, readyInterval); err != nil {
		return nil, err
	}

	output, err := r.Client.Exec(ctx, id, runCommand)
	if err != nil {
		return nil, err
	}

	result, err := ParseOutput(output)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ParseOutput scans command output for the workflow-result JSON line. The
// run command prints the result as a single JSON object containing a
// "timeline" key; surrounding log lines are ignored.
func ParseOutput(output string) (*workflow.Result, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") || !strings.Contains(line, "timeline") {
			continue
		}
		var result workflow.Result
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			continue
		}
		return &result, nil
	}
	return nil, fmt.Errorf("no workflow result found in sandbox output")
}
