package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// ListMemories returns every memory as JSON.
//
//	GET /api/memories
func ListMemories(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, store.All())
	}
}

// GetMemory returns one memory as JSON.
//
//	GET /api/memories/{id}
func GetMemory(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := lookup(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, logger, m)
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
