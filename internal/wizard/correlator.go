// Package wizard implements the guided workflow orchestration: the
// question/answer correlator, the stage-ordered state machine, and the
// tool surface the driving agent calls against a session.
package wizard

import (
	"fmt"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// Ask suspends the workflow on a question. At most one question may be
// outstanding per session; a second Ask while one is pending is a
// protocol violation by the driving agent and fails with
// ErrConflictingQuestion.
func Ask(s *domain.Session, q *domain.Question) error {
	if s.PendingQuestion != nil {
		return fmt.Errorf("question %q while %q is pending: %w",
			q.Text, s.PendingQuestion.Text, domain.ErrConflictingQuestion)
	}
	s.PendingQuestion = q
	return nil
}

// ApplyAnswer matches an incoming answer to the pending question. It
// validates the answer shape against the question's constraints, clears
// the pending question, and records the validated values for the driver
// to consume on resume. A second answer for the same question fails with
// ErrNoPendingQuestion — answers are never silently reapplied.
func ApplyAnswer(s *domain.Session, values []string) error {
	q := s.PendingQuestion
	if q == nil {
		return domain.ErrNoPendingQuestion
	}
	if err := q.ValidateAnswer(values); err != nil {
		// The question stays pending: an invalid answer does not
		// consume the suspension point.
		return err
	}
	s.PendingQuestion = nil
	s.LastAnswer = values

	// Answering the recommendation card is the Recommend stage's exit
	// condition; every other stage advances on a tool call.
	if s.Stage == domain.StageRecommend {
		s.Stage = domain.StageConfirm
	}
	return nil
}
