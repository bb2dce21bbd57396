package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/forgeworks/agentwizard/internal/ingest"
	"github.com/forgeworks/agentwizard/internal/protocol"
	"github.com/forgeworks/agentwizard/internal/wizard"
	"github.com/google/uuid"
)

// IngestHandler runs the standalone extraction channel: one connection,
// one package, one finalized document.
type IngestHandler struct {
	pipeline      *ingest.Pipeline
	artifacts     wizard.ArtifactSink
	resultBaseURL string
	resultTTL     time.Duration
	allowedOrigin string
	isDev         bool
}

// NewIngestHandler creates the extraction channel handler.
func NewIngestHandler(pipeline *ingest.Pipeline, artifacts wizard.ArtifactSink, resultBaseURL string, resultTTL time.Duration, allowedOrigin string, isDev bool) *IngestHandler {
	return &IngestHandler{
		pipeline:      pipeline,
		artifacts:     artifacts,
		resultBaseURL: resultBaseURL,
		resultTTL:     resultTTL,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !checkOrigin(r, h.allowedOrigin, h.isDev) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "extraction ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send, flush := startWriter(ctx, ws)
	defer flush()

	_, raw, err := ws.Read(ctx)
	if err != nil {
		slog.Debug("Extraction channel closed before start", "error", err)
		return
	}
	msg := protocol.ParseClientMessage(raw)
	if msg.Type != protocol.TypeStart || strings.TrimSpace(msg.PackageName) == "" {
		send(protocol.Error("Send a start message with a package_name."))
		send(protocol.Done())
		return
	}

	doc, err := h.pipeline.Run(ctx, msg.PackageName, msg.RepositoryURL, send)
	if err != nil {
		slog.Warn("Extraction failed", "package", msg.PackageName, "error", err)
		send(protocol.Error("Extraction failed: " + err.Error()))
		send(protocol.Done())
		return
	}

	downloadURL := ""
	if h.artifacts != nil {
		id := uuid.NewString()
		name := strings.ToLower(msg.PackageName) + "-api.md"
		if err := h.artifacts.PutArtifact(ctx, id, "extract", name, doc, h.resultTTL); err != nil {
			slog.Error("Failed to store extraction result", "package", msg.PackageName, "error", err)
		} else {
			downloadURL = strings.TrimSuffix(h.resultBaseURL, "/") + "/" + id
		}
	}

	send(protocol.Result(doc, downloadURL))
	send(protocol.Done())
	slog.Info("Extraction complete", "package", msg.PackageName, "chars", len(doc))
}
