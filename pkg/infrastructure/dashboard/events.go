package dashboard

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// handleEvents streams a short notice per refreshed dashboard as
// Server-Sent Events. ?types=team,flow limits the variants.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	filter := make(map[string]bool)
	if types := r.URL.Query().Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			filter[strings.TrimSpace(t)] = true
		}
	}

	updates, cancel := s.hub.Subscribe(16)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if len(filter) > 0 && !filter[u.Variant] {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\n", u.Variant)
			_, _ = fmt.Fprintf(w, "data: {\"type\":%q,\"status\":%q,\"generated_at\":%q}\n\n",
				u.Variant, u.Status, u.GeneratedAt.UTC().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}
