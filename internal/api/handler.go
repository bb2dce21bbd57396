// Package api provides the wizard's HTTP handlers: session bootstrap,
// deployment configuration, result download, and health.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/forgeworks/agentwizard/internal/policy"
	"github.com/forgeworks/agentwizard/internal/session"
	"github.com/forgeworks/agentwizard/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	sessions *session.Store
	repo     store.Repository
	gate     *policy.Gate
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(sessions *session.Store, repo store.Repository, gate *policy.Gate) *Handler {
	return &Handler{
		sessions: sessions,
		repo:     repo,
		gate:     gate,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
