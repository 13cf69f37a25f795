package watch

import (
	"path/filepath"
)

// Filter decides which workspace files trigger a refresh. Patterns are
// matched against the base name and the full path.
type Filter struct {
	Include []string
	Exclude []string
}

// DefaultFilter reacts to task, member and config edits and ignores atomic
// write temp files, editor swap files and the audit log.
func DefaultFilter() *Filter {
	return &Filter{
		Include: []string{"tasks.json", "members.yaml", "config.yaml"},
		Exclude: []string{"*.tmp", "*.swp", "*~", "events.jsonl"},
	}
}

// Matches returns true if path is not excluded and, when Include is set,
// matches at least one include pattern.
func (f *Filter) Matches(path string) bool {
	if f == nil {
		return true
	}
	if matchAny(f.Exclude, path) {
		return false
	}
	return len(f.Include) == 0 || matchAny(f.Include, path)
}

func matchAny(patterns []string, path string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
