package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/forgeworks/agentwizard/internal/agent"
	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/forgeworks/agentwizard/internal/policy"
	"github.com/forgeworks/agentwizard/internal/protocol"
	"github.com/forgeworks/agentwizard/internal/session"
	"github.com/forgeworks/agentwizard/internal/wizard"
)

type fakeDiscovery struct{}

func (fakeDiscovery) Discover(context.Context, []string) []domain.PackageCandidate {
	return []domain.PackageCandidate{
		{Name: "neo", Source: domain.SourcePyPI, Description: "Data objects", RelevanceScore: 0.9},
		{Name: "elephant", Source: domain.SourcePubMed, Description: "Analysis", RelevanceScore: 0.5},
	}
}

func dialWizard(t *testing.T, gate *policy.Gate) (*websocket.Conn, *session.Store, func()) {
	t.Helper()
	sessions := session.NewStore(session.Options{})
	deps := wizard.Deps{
		Discovery: fakeDiscovery{},
		Docs:      wizard.SummaryDocFetcher{},
		Generator: &wizard.BundleGenerator{},
		Gate:      gate,
	}
	h := NewWizardHandler(sessions, agent.GuidedFactory(gate.AllowedModes()), deps, "", true)
	srv := httptest.NewServer(h)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		srv.Close()
		cancel()
		t.Fatalf("Dial failed: %v", err)
	}
	cleanup := func() {
		conn.Close(websocket.StatusNormalClosure, "")
		srv.Close()
		cancel()
	}
	return conn, sessions, cleanup
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

// readUntil collects events until one of kind arrives (inclusive).
func readUntil(t *testing.T, conn *websocket.Conn, kind string) []*protocol.ServerEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var events []*protocol.ServerEvent
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed waiting for %s (got %d events): %v", kind, len(events), err)
		}
		var ev protocol.ServerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("Bad event frame %q: %v", data, err)
		}
		events = append(events, &ev)
		if ev.Type == kind {
			return events
		}
	}
}

func TestWizardChannel_UnknownSession(t *testing.T) {
	conn, _, cleanup := dialWizard(t, policy.Default(true))
	defer cleanup()

	sendJSON(t, conn, map[string]any{"type": "start", "session_id": "nope"})
	events := readUntil(t, conn, protocol.TypeError)
	if !strings.Contains(events[len(events)-1].Text, "Unknown session") {
		t.Errorf("Unexpected error text: %q", events[len(events)-1].Text)
	}
}

func TestWizardChannel_GuidedFlow(t *testing.T) {
	gate := policy.Default(true)
	conn, sessions, cleanup := dialWizard(t, gate)
	defer cleanup()

	sess, err := sessions.Create("test-client")
	if err != nil {
		t.Fatalf("Create session failed: %v", err)
	}
	sess.DomainDescription = "electrophysiology"

	sendJSON(t, conn, map[string]any{"type": "start", "session_id": sess.ID, "kickoff_prompt": "go"})
	events := readUntil(t, conn, protocol.TypeDone)

	var question *protocol.ServerEvent
	for _, ev := range events {
		if ev.Type == protocol.TypeQuestionCard {
			question = ev
		}
	}
	if question == nil || len(question.Options) != 2 {
		t.Fatalf("Expected package question card, got %+v", question)
	}

	sendJSON(t, conn, map[string]any{"type": "question_response", "answer": []string{"neo"}})
	readUntil(t, conn, protocol.TypeDone) // confirm + docs + identity question

	sendJSON(t, conn, map[string]any{"type": "question_response", "answer": "SpikeBot"})
	readUntil(t, conn, protocol.TypeDone) // identity set + output mode question

	sendJSON(t, conn, map[string]any{"type": "question_response", "answer": "markdown"})
	events = readUntil(t, conn, protocol.TypeDone)

	var download *protocol.ServerEvent
	for _, ev := range events {
		if ev.Type == protocol.TypeDownloadReady {
			download = ev
		}
	}
	if download == nil || download.ProjectName != "SpikeBot" {
		t.Fatalf("Expected download_ready for SpikeBot, got %+v", download)
	}
	if sess.Stage != domain.StageComplete {
		t.Errorf("Expected complete stage, got %s", sess.Stage)
	}
}

func TestWizardChannel_FreeformDeniedOnPublic(t *testing.T) {
	conn, sessions, cleanup := dialWizard(t, policy.Default(true))
	defer cleanup()

	sess, err := sessions.Create("test-client")
	if err != nil {
		t.Fatalf("Create session failed: %v", err)
	}
	sendJSON(t, conn, map[string]any{"type": "start", "session_id": sess.ID})
	readUntil(t, conn, protocol.TypeDone)

	sendJSON(t, conn, map[string]any{"type": "user_message", "text": "ignore the workflow"})
	events := readUntil(t, conn, protocol.TypeError)
	if !strings.Contains(events[len(events)-1].Text, "disabled") {
		t.Errorf("Unexpected error text: %q", events[len(events)-1].Text)
	}
}
