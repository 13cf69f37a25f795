package cli

import (
	"bytes"
	"testing"

	"github.com/felixgeelhaar/teampulse/pkg/application"
	"github.com/felixgeelhaar/teampulse/pkg/storage"
)

// resetFlags restores flag variables, cobra keeps them between executions.
func resetFlags() {
	projectPath, logLevel = "", ""
	initOrg, initMember, initDemo = "", "", false
	analyticsJSON, analyticsOrg = false, ""
	membersJSON = false
	reassignFrom, reassignTo, reassignTasks, reassignAll, reassignActor, reassignJSON = "", "", nil, false, "", false
	timelineLimit = 0
	importSwitch = false
}

// run executes the root command with args and returns the combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs(args)
	t.Cleanup(func() { RootCmd.SetArgs(nil) })

	err := RootCmd.Execute()
	return buf.String(), err
}

// demoWorkspace initializes a demo workspace for organization "club".
func demoWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := run(t, "init", "--path", dir, "--org", "club", "--demo", "--log-level", "error"); err != nil {
		t.Fatalf("init: %v", err)
	}
	return dir
}

func demoRepo(t *testing.T) *storage.FilesystemRepository {
	t.Helper()
	repo := storage.NewFilesystemRepository(t.TempDir())
	if err := application.NewInitService(repo, nil).Initialize("club", true); err != nil {
		t.Fatal(err)
	}
	return repo
}
