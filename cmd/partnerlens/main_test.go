// Package main provides tests for the partnerlens CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/partnerlens/partnerlens/internal/cli"
	"github.com/partnerlens/partnerlens/internal/cli/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "partnerlens") {
		t.Errorf("version output should contain 'partnerlens', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"activation", "closerate", "cohort", "query", "seed", "doctor", "history", "init"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	output, err := execute(t, "init", dir)
	if err != nil {
		t.Fatalf("init command error = %v", err)
	}
	if !strings.Contains(output, "partnerlens.yaml") {
		t.Errorf("init output should mention partnerlens.yaml, got: %s", output)
	}

	data, err := os.ReadFile(filepath.Join(dir, "partnerlens.yaml"))
	if err != nil {
		t.Fatalf("expected generated config: %v", err)
	}
	for _, want := range []string{"state_path:", "target:", "type: postgres"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("generated config should contain %q, got: %s", want, data)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, ".partnerlens")); err != nil {
		t.Errorf("init should create .partnerlens directory: %v", err)
	}

	// Second run without --force must refuse to overwrite
	if _, err := execute(t, "init", dir); err == nil {
		t.Error("init over an existing config should fail without --force")
	}
	if _, err := execute(t, "init", dir, "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.db")

	output, err := execute(t, "history", "--state", statePath, "-o", "text")
	if err != nil {
		t.Fatalf("history command error = %v", err)
	}
	if !strings.Contains(output, "No runs recorded") {
		t.Errorf("empty history should say so, got: %s", output)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "frobnicate"); err == nil {
		t.Error("unknown command should return an error")
	}
}
