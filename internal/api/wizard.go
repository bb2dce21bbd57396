package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/forgeworks/agentwizard/internal/identity"
	"github.com/forgeworks/agentwizard/internal/wizard"
	"github.com/go-chi/chi/v5"
)

// startRequest is the intake form posted before opening the channel.
type startRequest struct {
	DomainDescription string   `json:"domain_description"`
	ResearchGoals     []string `json:"research_goals"`
	DataTypes         []string `json:"data_types"`
	AnalysisGoals     []string `json:"analysis_goals"`
	ExperienceLevel   string   `json:"experience_level"`
	FileTypes         []string `json:"file_types"`
	KnownPackages     []string `json:"known_packages"`
	Model             string   `json:"model"`
}

// RegisterRoutes mounts the wizard API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/wizard/start", h.handleStart)
	r.Get("/api/config", h.handleConfig)
	r.Get("/api/result/{id}", h.handleResult)
	r.Get("/api/healthz", h.handleHealth)
}

// handleStart creates a session from the intake form and returns the
// kickoff prompt the client sends on its first channel message.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Model != "" && !domain.IsSupportedModel(req.Model) {
		Error(w, http.StatusBadRequest, fmt.Sprintf("unsupported model %q", req.Model))
		return
	}

	sess, err := h.sessions.Create(identity.ClientKeyFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			Error(w, http.StatusTooManyRequests, "too many sessions; try again later")
			return
		}
		slog.Error("Failed to create session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	sess.DomainDescription = req.DomainDescription
	sess.ResearchGoals = req.ResearchGoals
	sess.DataTypes = req.DataTypes
	sess.AnalysisGoals = req.AnalysisGoals
	sess.ExperienceLevel = req.ExperienceLevel
	sess.FileTypes = req.FileTypes
	sess.KnownPackages = req.KnownPackages
	if req.Model != "" {
		sess.Model = req.Model
	}

	JSON(w, http.StatusOK, map[string]any{
		"session_id":     sess.ID,
		"stage":          sess.Stage.String(),
		"kickoff_prompt": wizard.BuildKickoffPrompt(sess, h.gate.Public()),
	})
}

// handleConfig reports what this deployment offers, for the intake UI.
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	modes := make([]map[string]string, 0, 3)
	for _, m := range h.gate.AllowedModes() {
		modes = append(modes, map[string]string{
			"value":       string(m),
			"description": domain.OutputModeDescription(m),
		})
	}
	JSON(w, http.StatusOK, map[string]any{
		"models":        domain.SupportedModels,
		"default_model": domain.DefaultModel(),
		"output_modes":  modes,
		"public":        h.gate.Public(),
	})
}

// handleResult serves a stored artifact as a markdown download. The
// download claims the result: a second request for the same id is a 404.
func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	artifact, err := h.repo.TakeArtifact(r.Context(), id)
	if err != nil {
		slog.Error("Failed to take artifact", "artifact_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read result")
		return
	}
	if artifact == nil {
		Error(w, http.StatusNotFound, "result not found or already downloaded")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(artifact.Content)); err != nil {
		slog.Warn("Failed to write result body", "artifact_id", id, "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
