package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// CLIBackend shells out to a generic command-line executor, writing the
// prompt to stdin and reading the completion from stdout.
type CLIBackend struct {
	command string
}

// NewCLI creates a backend wrapping the given shell command.
func NewCLI(command string) *CLIBackend {
	return &CLIBackend{command: command}
}

// Name identifies the backend.
func (b *CLIBackend) Name() string { return "cli" }

// Generate runs the command through "sh -c" with the prompt on stdin.
func (b *CLIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if b.command == "" {
		return "", fmt.Errorf("cli backend: no command configured")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", b.command)
	cmd.Stdin = bytes.NewBufferString(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("cli backend: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
