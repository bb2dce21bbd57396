package domain

import "strings"

// DefaultAnswerMaxLength bounds freetext answers when the asker does not
// specify a limit.
const DefaultAnswerMaxLength = 100

// Question is a structured human-input request. Presenting one suspends
// the workflow until the matching answer arrives; once answered it is
// immutable and removed from the session.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`
	AllowFreetext bool     `json:"allow_freetext,omitempty"`
	MaxLength     int      `json:"max_length,omitempty"`
}

// ValidateAnswer checks an incoming answer against the question's
// constraints. Returns ErrInvalidAnswer with no partial acceptance.
func (q *Question) ValidateAnswer(values []string) error {
	if len(values) == 0 {
		return ErrInvalidAnswer
	}
	if len(values) > 1 && !q.AllowMultiple {
		return ErrInvalidAnswer
	}
	maxLen := q.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultAnswerMaxLength
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return ErrInvalidAnswer
		}
		if q.matchesOption(v) {
			continue
		}
		if !q.AllowFreetext {
			return ErrInvalidAnswer
		}
		if len(v) > maxLen {
			return ErrInvalidAnswer
		}
	}
	return nil
}

func (q *Question) matchesOption(v string) bool {
	for _, opt := range q.Options {
		if strings.EqualFold(strings.TrimSpace(v), opt) {
			return true
		}
	}
	return false
}
