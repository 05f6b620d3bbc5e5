package llm

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/google/uuid"
)

// ClaudeCode implements Provider by shelling out to the claude CLI.
// No API key is needed when the CLI is already logged in.
type ClaudeCode struct {
	cliPath string
	lookup  func(string) (string, error)
}

// NewClaudeCode creates a new Claude Code provider.
func NewClaudeCode() *ClaudeCode {
	return &ClaudeCode{lookup: exec.LookPath}
}

// Name returns the provider name.
func (c *ClaudeCode) Name() string {
	return "claude-code"
}

// Available checks if the claude CLI is installed and accessible.
func (c *ClaudeCode) Available() bool {
	path, err := c.lookup("claude")
	if err != nil {
		return false
	}
	c.cliPath = path
	return true
}

// Complete runs one non-interactive CLI turn in a fresh session. A session
// ID that is already in use is retried with a new one.
func (c *ClaudeCode) Complete(ctx context.Context, system, prompt string) (string, error) {
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err := c.run(ctx, uuid.New().String(), system, prompt)
		if err == nil {
			return result, nil
		}
		var cliErr *CLIError
		if errors.As(err, &cliErr) && strings.Contains(cliErr.Stderr, "already in use") {
			continue
		}
		return "", err
	}
	return "", &CLIError{Err: ErrSessionCollision, Stderr: "session ID collision after max retries"}
}

func (c *ClaudeCode) run(ctx context.Context, sessionID, system, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, c.cliPath, c.args(sessionID, system, prompt)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", &CLIError{Err: err, Stderr: stderr.String()}
		}
		return "", err
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (c *ClaudeCode) args(sessionID, system, prompt string) []string {
	args := []string{
		"--print", // non-interactive: print the response and exit
		"--session-id", sessionID,
	}
	if system != "" {
		args = append(args, "--system-prompt", system)
	}
	return append(args, prompt)
}

// CLIError wraps CLI execution errors with stderr output.
type CLIError struct {
	Err    error
	Stderr string
}

func (e *CLIError) Error() string {
	if e.Stderr != "" {
		return e.Err.Error() + ": " + e.Stderr
	}
	return e.Err.Error()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}
