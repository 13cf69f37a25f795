package webhook

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDeadLetterStore_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), DeadLetterFile)
	store := NewDeadLetterStore(path)

	entries, err := store.ReadAll()
	if err != nil || entries != nil {
		t.Fatalf("missing file should read empty, got %v, %v", entries, err)
	}

	for _, name := range []string{"a", "b"} {
		if err := store.Append(DeadLetter{Timestamp: time.Now(), Endpoint: name, Attempts: 3}); err != nil {
			t.Fatal(err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("not json\n")
	f.Close()

	entries, err = store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Endpoint != "a" || entries[1].Endpoint != "b" {
		t.Errorf("unexpected entries %+v", entries)
	}
}
