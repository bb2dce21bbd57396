// Package ws implements the websocket channels: the wizard conversation
// channel and the standalone extraction channel. Each connection owns its
// session; events flow out through a single writer goroutine so frames
// are never interleaved.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/forgeworks/agentwizard/internal/agent"
	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/forgeworks/agentwizard/internal/protocol"
	"github.com/forgeworks/agentwizard/internal/session"
	"github.com/forgeworks/agentwizard/internal/wizard"
)

// sendQueueSize bounds buffered outbound events per connection.
const sendQueueSize = 64

// WizardHandler upgrades wizard channel connections and pumps one
// session's machine.
type WizardHandler struct {
	sessions      *session.Store
	factory       agent.Factory
	deps          wizard.Deps
	allowedOrigin string
	isDev         bool
}

// NewWizardHandler creates the wizard channel handler.
func NewWizardHandler(sessions *session.Store, factory agent.Factory, deps wizard.Deps, allowedOrigin string, isDev bool) *WizardHandler {
	return &WizardHandler{
		sessions:      sessions,
		factory:       factory,
		deps:          deps,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WizardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send, flush := startWriter(ctx, ws)
	defer flush()

	var m *wizard.Machine
	sessionID := ""
	defer func() {
		// The channel is the session's lifeline: a closed connection tears
		// the session down silently.
		if sessionID != "" {
			h.sessions.Expire(sessionID)
		}
	}()

	for {
		_, raw, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "session_id", sessionID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		msg := protocol.ParseClientMessage(raw)
		switch msg.Type {
		case protocol.TypeStart:
			if m != nil {
				send(protocol.Error("This channel already carries a session."))
				continue
			}
			sess, err := h.sessions.Get(msg.SessionID)
			if err != nil {
				send(protocol.Error("Unknown session. Start over from the intake form."))
				return
			}
			if msg.Model != "" && domain.IsSupportedModel(msg.Model) {
				sess.Model = msg.Model
			}
			sessionID = sess.ID
			m = wizard.New(sess, h.factory, h.deps, send)
			slog.Info("Wizard channel bound", "session_id", sessionID)
			m.Kickoff(ctx, msg.KickoffPrompt)

		case protocol.TypeQuestionResponse:
			if m == nil {
				send(protocol.Error("Send a start message first."))
				continue
			}
			h.sessions.Touch(sessionID)
			values, err := msg.AnswerValues()
			if err != nil {
				send(protocol.Error(err.Error()))
				continue
			}
			// Unmatched or invalid answers surface as error events inside
			// Answer; the channel stays open either way.
			_ = m.Answer(ctx, values)

		case protocol.TypeUserMessage:
			if m == nil {
				send(protocol.Error("Send a start message first."))
				continue
			}
			h.sessions.Touch(sessionID)
			if !h.deps.Gate.FreeformAllowed() {
				send(protocol.Error("Freeform chat is disabled in this deployment. Use the question cards."))
				continue
			}
			m.UserMessage(ctx, msg.Text)

		default:
			send(protocol.Error("Unknown message type."))
		}
	}
}

// startWriter runs the single writer goroutine for a connection. The
// returned send function queues an event; flush closes the queue and
// waits for the drain so no accepted event is dropped on teardown.
func startWriter(ctx context.Context, ws *websocket.Conn) (send wizard.Emit, flush func()) {
	queue := make(chan *protocol.ServerEvent, sendQueueSize)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range queue {
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("Failed to encode server event", "type", ev.Type, "error", err)
				continue
			}
			if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
				slog.Debug("WebSocket write error", "error", err)
				// Keep draining so senders never block on a dead peer.
			}
		}
	}()

	send = func(ev *protocol.ServerEvent) {
		select {
		case queue <- ev:
		case <-ctx.Done():
		}
	}
	flush = func() {
		close(queue)
		<-done
	}
	return send, flush
}

func checkOrigin(r *http.Request, allowedOrigin string, isDev bool) bool {
	if isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || allowedOrigin == "*" || allowedOrigin == "" {
		return true
	}
	if origin == allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", allowedOrigin)
	return false
}
