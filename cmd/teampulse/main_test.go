package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/felixgeelhaar/teampulse/internal/infrastructure/cli"
)

func TestRun_Help(t *testing.T) {
	cli.RootCmd.SetArgs([]string{"--help"})
	cli.RootCmd.SetOut(&bytes.Buffer{})
	defer cli.RootCmd.SetArgs(nil)

	var stderr bytes.Buffer
	if code := run(&stderr); code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}
}

func TestRun_PrintsHint(t *testing.T) {
	dir := t.TempDir()
	cli.RootCmd.SetArgs([]string{"analytics", "team", "--path", dir})
	cli.RootCmd.SetOut(&bytes.Buffer{})
	cli.RootCmd.SetErr(&bytes.Buffer{})
	defer cli.RootCmd.SetArgs(nil)

	var stderr bytes.Buffer
	if code := run(&stderr); code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Hint: Run 'teampulse init") {
		t.Errorf("missing hint in %q", stderr.String())
	}
}
