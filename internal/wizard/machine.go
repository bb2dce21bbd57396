package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forgeworks/agentwizard/internal/agent"
	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/forgeworks/agentwizard/internal/policy"
	"github.com/forgeworks/agentwizard/internal/protocol"
)

// Emit delivers one server event to the session's channel.
type Emit func(*protocol.ServerEvent)

// DocFetcher retrieves reference material for confirmed packages. Keys of
// the returned map are package names; packages absent from the map are
// recorded as unavailable.
type DocFetcher interface {
	Fetch(ctx context.Context, packages []domain.PackageCandidate) (map[string]string, error)
}

// Generator produces the final artifact bundle for a completed session.
type Generator interface {
	Generate(ctx context.Context, s *domain.Session) (*domain.ArtifactDescriptor, error)
}

// IngestRunner runs the deep API-extraction pipeline for one package.
type IngestRunner interface {
	Ingest(ctx context.Context, packageName, repositoryURL string) (markdown string, err error)
}

// AgentRunner installs packages and launches generated agents on the host.
// Only wired in full deployments; nil elsewhere.
type AgentRunner interface {
	Install(ctx context.Context, packages []string) (string, error)
	Launch(ctx context.Context, artifact *domain.ArtifactDescriptor) (string, error)
}

// Deps are the collaborators a Machine dispatches tool calls to.
type Deps struct {
	Discovery Discoverer
	Docs      DocFetcher
	Generator Generator
	Ingestor  IngestRunner
	Runner    AgentRunner
	Gate      *policy.Gate
}

// Discoverer is the candidate search entry point.
type Discoverer interface {
	Discover(ctx context.Context, keywords []string) []domain.PackageCandidate
}

// Machine orchestrates one wizard session: it runs driver turns, executes
// the driver's tool calls under the capability gate and stage ordering,
// and emits the resulting server events. A Machine is confined to its
// connection's handler goroutine and is not safe for concurrent use.
type Machine struct {
	sess   *domain.Session
	driver agent.Driver
	deps   Deps
	emit   Emit
	log    *slog.Logger

	// Events queued by a tool handler to follow its tool_complete.
	after []*protocol.ServerEvent
}

// New builds a Machine for the session, constructing its driver from
// factory.
func New(sess *domain.Session, factory agent.Factory, deps Deps, emit Emit) *Machine {
	return &Machine{
		sess:   sess,
		driver: factory(sess),
		deps:   deps,
		emit:   emit,
		log:    slog.With("session_id", sess.ID),
	}
}

// Session exposes the machine's session for handlers and tests.
func (m *Machine) Session() *domain.Session {
	return m.sess
}

// Kickoff starts the first driver turn from the intake prompt.
func (m *Machine) Kickoff(ctx context.Context, prompt string) {
	m.runTurn(ctx, prompt)
}

// Answer applies an incoming answer to the pending question and, on
// success, resumes the suspended workflow with a fresh driver turn.
// Unmatched and invalid answers are surfaced as error events and do not
// resume anything.
func (m *Machine) Answer(ctx context.Context, values []string) error {
	if err := ApplyAnswer(m.sess, values); err != nil {
		m.log.Warn("Answer rejected", "stage", m.sess.Stage.String(), "error", err)
		m.emit(protocol.Error(answerErrorText(err)))
		return err
	}
	m.runTurn(ctx, "")
	return nil
}

// UserMessage feeds a freeform chat message into the driver. The caller
// is responsible for the gate's freeform check.
func (m *Machine) UserMessage(ctx context.Context, text string) {
	if m.sess.PendingQuestion != nil {
		m.emit(protocol.Error("Please answer the open question first."))
		m.emit(protocol.Done())
		return
	}
	m.runTurn(ctx, text)
}

// runTurn consumes one driver turn, forwarding text as deltas. Every turn
// ends with a done event so the client can re-enable input.
func (m *Machine) runTurn(ctx context.Context, prompt string) {
	for ev, err := range m.driver.Stream(ctx, prompt, m) {
		if err != nil {
			m.log.Error("Driver turn failed", "stage", m.sess.Stage.String(), "error", err)
			m.emit(protocol.Error("The assistant hit an internal error. Please try again."))
			break
		}
		if ev != nil && ev.Text != "" {
			m.emit(protocol.TextDelta(ev.Text))
		}
	}
	m.emit(protocol.Done())
}

// Execute implements agent.ToolExecutor. It is the single dispatch point
// for every tool call: the capability gate and stage ordering are checked
// here, and the tool_start/tool_complete pair is emitted here, so no
// driver can skip either.
func (m *Machine) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	if err := m.deps.Gate.CheckTool(name); err != nil {
		m.log.Warn("Tool denied by gate", "tool", name)
		m.emit(protocol.Error(fmt.Sprintf("%s is not available in this deployment.", name)))
		return "", err
	}
	if !stageAllows(m.sess.Stage, name) {
		err := fmt.Errorf("tool %q in stage %s: %w", name, m.sess.Stage, domain.ErrStageViolation)
		m.log.Warn("Tool out of stage order", "tool", name, "stage", m.sess.Stage.String())
		m.emit(protocol.Error(err.Error()))
		return "", err
	}

	m.emit(protocol.ToolStart(name))
	result, summary, err := m.dispatch(ctx, name, args)
	if errors.Is(err, agent.ErrAwaitInput) {
		m.emit(protocol.ToolComplete(name, "Waiting for your answer"))
		m.emit(protocol.QuestionCard(m.sess.PendingQuestion))
		return "", err
	}
	if err != nil {
		m.log.Warn("Tool failed", "tool", name, "stage", m.sess.Stage.String(), "error", err)
		m.emit(protocol.ToolComplete(name, "Failed: "+err.Error()))
		m.emit(protocol.Error(err.Error()))
		return "", err
	}
	m.emit(protocol.ToolComplete(name, summary))
	for _, ev := range m.after {
		m.emit(ev)
	}
	m.after = nil
	return result, nil
}

// stageAllows is the stage-ordering table: which tools are legal while
// the session sits in a given stage. get_state and set_model are
// stage-independent; everything else belongs to exactly the stage whose
// exit it drives.
func stageAllows(stage domain.Stage, tool string) bool {
	switch tool {
	case domain.ToolGetState, domain.ToolSetModel:
		return true
	case domain.ToolPresentQuestion:
		return !stage.Terminal()
	case domain.ToolSearchPackages:
		return stage == domain.StageAcknowledge || stage == domain.StageDiscover
	case domain.ToolShowRecommended:
		return stage == domain.StageRecommend
	case domain.ToolConfirmPackages:
		return stage == domain.StageConfirm
	case domain.ToolFetchDocs, domain.ToolIngestLibraryAPI:
		return stage == domain.StageFetchDocs
	case domain.ToolSetIdentity:
		return stage == domain.StageIdentity
	case domain.ToolSetOutputMode:
		return stage == domain.StageOutputMode
	case domain.ToolGenerate:
		return stage == domain.StageGenerate
	case domain.ToolInstallPackages, domain.ToolLaunchAgent:
		return stage == domain.StageGenerate || stage == domain.StageComplete
	}
	return false
}

func answerErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoPendingQuestion):
		return "There is no open question to answer right now."
	case errors.Is(err, domain.ErrInvalidAnswer):
		return "That answer doesn't match the question. Please pick from the offered options."
	default:
		return err.Error()
	}
}
