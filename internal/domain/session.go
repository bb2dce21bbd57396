// Package domain contains core types for the agent-builder wizard.
package domain

import (
	"fmt"
	"time"
)

// Identity is the generated agent's name and descriptor.
type Identity struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
}

// Session is the accumulated state of one wizard conversation. It is
// owned exclusively by the connection that created it: only that
// connection's handler goroutine mutates it, so no locking is needed on
// the fields themselves.
type Session struct {
	ID    string
	Stage Stage

	// Intake form input, folded into the kickoff prompt.
	DomainDescription string
	ResearchGoals     []string
	DataTypes         []string
	AnalysisGoals     []string
	ExperienceLevel   string
	FileTypes         []string
	KnownPackages     []string

	// At most one question is outstanding at any time.
	PendingQuestion *Question
	questionSeq     int

	// LastAnswer holds the validated values of the most recently
	// answered question, for the driver to consume on resume.
	LastAnswer []string

	Keywords   []string
	Candidates []PackageCandidate
	Confirmed  []PackageCandidate

	// FetchedDocs maps confirmed package name to fetched reference
	// material, or an explicit "unavailable" note.
	FetchedDocs map[string]string

	Identity   Identity
	OutputMode OutputMode
	Model      string

	LastGenerate *ArtifactDescriptor

	CreatedAt      time.Time
	LastActivityAt time.Time
}

// NextQuestionID returns a question id scoped to this session.
func (s *Session) NextQuestionID() string {
	s.questionSeq++
	return fmt.Sprintf("%s/q%d", s.ID, s.questionSeq)
}

// Touch records channel activity for idle-expiry purposes.
func (s *Session) Touch(now time.Time) {
	s.LastActivityAt = now
}

// Idle reports whether the session has seen no activity for ttl.
func (s *Session) Idle(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivityAt) >= ttl
}

// DocsComplete reports whether reference material has been recorded for
// every confirmed package. This is the FetchDocs stage exit condition.
func (s *Session) DocsComplete() bool {
	if len(s.Confirmed) == 0 {
		return false
	}
	for _, c := range s.Confirmed {
		if _, ok := s.FetchedDocs[c.Name]; !ok {
			return false
		}
	}
	return true
}

// Snapshot serialises session state for tool results and logging.
func (s *Session) Snapshot() map[string]any {
	confirmed := make([]map[string]string, 0, len(s.Confirmed))
	for _, c := range s.Confirmed {
		confirmed = append(confirmed, map[string]string{
			"name":        c.Name,
			"description": c.Description,
			"source":      string(c.Source),
		})
	}
	return map[string]any{
		"session_id":         s.ID,
		"stage":              s.Stage.String(),
		"domain_description": s.DomainDescription,
		"keywords":           s.Keywords,
		"candidates":         len(s.Candidates),
		"confirmed_packages": confirmed,
		"docs_fetched":       len(s.FetchedDocs),
		"agent_name":         s.Identity.Name,
		"output_mode":        string(s.OutputMode),
		"model":              s.Model,
	}
}
