package watch

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestBatcher_CoalescesPaths(t *testing.T) {
	var (
		mu    sync.Mutex
		calls [][]string
	)
	b := NewBatcher(50*time.Millisecond, func(p []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, p)
	})
	defer b.Stop()

	for i := 0; i < 5; i++ {
		b.Add("tasks.json")
		b.Add("members.yaml")
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("expected 1 flush, got %d", len(calls))
	}
	if want := []string{"members.yaml", "tasks.json"}; !reflect.DeepEqual(calls[0], want) {
		t.Errorf("flushed %v, want %v", calls[0], want)
	}
}

func TestBatcher_Stop(t *testing.T) {
	fired := make(chan struct{}, 1)
	b := NewBatcher(50*time.Millisecond, func([]string) { fired <- struct{}{} })

	b.Add("tasks.json")
	b.Stop()

	select {
	case <-fired:
		t.Error("callback fired after Stop")
	case <-time.After(120 * time.Millisecond):
	}
}
