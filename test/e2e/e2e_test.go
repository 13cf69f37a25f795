package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary compiles cmd/teampulse into a temp dir.
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("e2e: skipping binary build in short mode")
	}
	bin := filepath.Join(t.TempDir(), "teampulse")
	build := exec.Command("go", "build", "-o", bin, "./cmd/teampulse")
	build.Dir = findRepoRoot(t)
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("build teampulse: %v\n%s", err, out)
	}
	return bin
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir := cwd
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

func TestHappyPath(t *testing.T) {
	bin := buildBinary(t)
	tempDir := t.TempDir()

	run := func(args ...string) string {
		cmd := exec.Command(bin, args...)
		cmd.Dir = tempDir
		output, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("teampulse %v failed: %v\nOutput: %s", args, err, output)
		}
		return string(output)
	}

	// 1. Init with the demo team
	t.Log("Running teampulse init...")
	out := run("init", "--org", "club", "--member", "u-ana", "--demo")
	if !strings.Contains(out, "club") {
		t.Errorf("Unexpected init output: %s", out)
	}
	for _, f := range []string{"config.yaml", "tasks.json", "members.yaml", "events.jsonl"} {
		if _, err := os.Stat(filepath.Join(tempDir, ".teampulse", f)); os.IsNotExist(err) {
			t.Errorf(".teampulse/%s missing", f)
		}
	}

	// 2. Team dashboard
	t.Log("Running teampulse analytics team...")
	out = run("analytics", "team", "--json")
	if !strings.Contains(out, `"total": 18`) {
		t.Errorf("team report missing totals: %s", out)
	}

	// 3. Reassign every pending task of Luis to Vera
	t.Log("Running teampulse reassign...")
	out = run("reassign", "--from", "u-luis", "--to", "u-vera", "--all")
	if !strings.Contains(out, "Vera Campos") {
		t.Errorf("unexpected reassign output: %s", out)
	}

	// 4. Viewers cannot receive work
	cmd := exec.Command(bin, "reassign", "--from", "u-vera", "--to", "u-tom", "--all")
	cmd.Dir = tempDir
	if output, err := cmd.CombinedOutput(); err == nil {
		t.Errorf("reassign to a viewer should fail: %s", output)
	}

	// 5. Audit trail is intact
	t.Log("Running teampulse audit verify...")
	run("audit", "verify")
	out = run("audit", "timeline", "-n", "1")
	if !strings.Contains(out, "tasks.reassigned") {
		t.Errorf("timeline missing the reassignment: %s", out)
	}

	// 6. Flow report still renders
	out = run("analytics", "flow")
	if !strings.Contains(out, "Flow health") {
		t.Errorf("unexpected flow output: %s", out)
	}
}
