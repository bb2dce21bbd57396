// Package agent abstracts the driving agent: an opaque source of text
// and tool-call activity that the orchestration layer consumes. The
// language-model invocation itself is out of scope; any backend that can
// emit events and call tools through the executor fits behind Driver.
package agent

import (
	"context"
	"errors"
	"iter"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// ErrAwaitInput is returned by ToolExecutor.Execute when the invoked
// tool presented a question to the human operator. The driver must end
// its current turn; the orchestrator starts a new turn once the answer
// arrives.
var ErrAwaitInput = errors.New("awaiting operator input")

// Event is one unit of streamed agent output.
type Event struct {
	// Text is an incremental fragment of the agent's utterance.
	Text string
}

// ToolExecutor runs a named tool on behalf of the driver and returns a
// JSON result payload. The orchestration layer implements this and
// enforces stage ordering and the capability gate before dispatch.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Driver produces one turn of agent activity: a stream of text events
// interleaved with tool calls made through exec. A turn ends when the
// driver has nothing further to do without new operator input.
type Driver interface {
	Stream(ctx context.Context, prompt string, exec ToolExecutor) iter.Seq2[*Event, error]
}

// Factory builds a driver bound to one session's state.
type Factory func(state *domain.Session) Driver
