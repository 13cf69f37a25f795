package watch

import "testing"

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	tests := []struct {
		path string
		want bool
	}{
		{"/w/.teampulse/tasks.json", true},
		{"/w/.teampulse/members.yaml", true},
		{"/w/.teampulse/config.yaml", true},
		{"/w/.teampulse/tasks.json.tmp", false},
		{"/w/.teampulse/events.jsonl", false},
		{"/w/.teampulse/.members.yaml.swp", false},
		{"/w/.teampulse/notes.md", false},
	}
	for _, tt := range tests {
		if got := f.Matches(tt.path); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFilter_NoIncludeMatchesAll(t *testing.T) {
	f := &Filter{Exclude: []string{"*.log"}}
	if !f.Matches("a.json") {
		t.Error("expected a.json to pass")
	}
	if f.Matches("/tmp/x.log") {
		t.Error("expected x.log to be excluded")
	}
	var nilFilter *Filter
	if !nilFilter.Matches("anything") {
		t.Error("nil filter should match everything")
	}
}
