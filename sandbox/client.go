// ABOUTME: HTTP client for the sandbox workspace API: create, status, exec, delete.
// ABOUTME: Bearer auth and JSON bodies, mirroring the agi client's transport discipline.

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusRunning is the workspace status that means it is ready for commands.
const StatusRunning = "running"

// Config holds the sandbox API connection settings.
type Config struct {
	// APIURL is the base URL of the sandbox API, e.g. http://localhost:3000/api/v1.
	APIURL string
	// APIKey authenticates every request. Empty means the sandbox path is
	// unavailable and callers should use their fallback.
	APIKey string
	// Template names the workspace template to instantiate.
	Template string
	// Cleanup controls whether workspaces are deleted after a run.
	Cleanup bool
	// Timeout bounds individual control-plane requests. Zero means 60s.
	Timeout time.Duration
	// ExecTimeout bounds the workflow command execution. Zero means 5m.
	ExecTimeout time.Duration
}

// Client talks to the sandbox workspace API.
type Client struct {
	cfg  Config
	http *http.Client
	exec *http.Client
}

// NewClient creates a sandbox API client. Defaults: template
// "flyout-workflow", 60s control-plane timeout, 5m exec timeout.
func NewClient(cfg Config) *Client {
	if cfg.Template == "" {
		cfg.Template = "flyout-workflow"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ExecTimeout == 0 {
		cfg.ExecTimeout = 5 * time.Minute
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		exec: &http.Client{Timeout: cfg.ExecTimeout},
	}
}

// Configured reports whether the client has credentials to reach the API.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.APIURL != ""
}

// WorkspaceSpec describes the workspace to create.
type WorkspaceSpec struct {
	Name     string            `json:"name"`
	Template string            `json:"template"`
	Project  string            `json:"project"`
	Env      map[string]string `json:"env"`
}

// CreateWorkspace creates a workspace from the client's template and returns
// its id. The API may omit the id, in which case the requested name stands.
func (c *Client) CreateWorkspace(ctx context.Context, name string, env map[string]string) (string, error) {
	spec := WorkspaceSpec{
		Name:     name,
		Template: c.cfg.Template,
		Project:  "flyout-workflow",
		Env:      env,
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, c.http, http.MethodPost, "/workspace", spec, &created); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	if created.ID != "" {
		return created.ID, nil
	}
	return name, nil
}

// WorkspaceStatus fetches the workspace's current status string.
func (c *Client) WorkspaceStatus(ctx context.Context, id string) (string, error) {
	var ws struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, c.http, http.MethodGet, "/workspace/"+id, nil, &ws); err != nil {
		return "", fmt.Errorf("workspace status: %w", err)
	}
	return ws.Status, nil
}

// WaitReady polls the workspace until it reports running, for at most maxWait
// at the given interval. Individual status failures are tolerated; only the
// deadline ends the wait unsuccessfully.
func (c *Client) WaitReady(ctx context.Context, id string, maxWait, interval time.Duration) error {
	deadline := time.Now().Add(maxWait)
	for {
		status, err := c.WorkspaceStatus(ctx, id)
		if err == nil && status == StatusRunning {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("workspace %s did not become ready within %s", id, maxWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Exec runs a command inside the workspace and returns its captured output.
func (c *Client) Exec(ctx context.Context, id, command string) (string, error) {
	var result struct {
		Output string `json:"output"`
	}
	body := map[string]string{"command": command}
	if err := c.doJSON(ctx, c.exec, http.MethodPost, "/workspace/"+id+"/command", body, &result); err != nil {
		return "", fmt.Errorf("exec in workspace: %w", err)
	}
	return result.Output, nil
}

// DeleteWorkspace removes the workspace.
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, c.http, http.MethodDelete, "/workspace/"+id, nil, nil); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
