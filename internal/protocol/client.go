package protocol

import (
	"encoding/json"
	"fmt"
)

// Client message type discriminants.
const (
	TypeStart            = "start"
	TypeQuestionResponse = "question_response"
	TypeUserMessage      = "user_message"
)

// ClientMessage is one JSON message from client to server: the channel
// start payload, a typed question response, or freeform text.
type ClientMessage struct {
	Type string `json:"type"`

	// start
	SessionID     string `json:"session_id,omitempty"`
	KickoffPrompt string `json:"kickoff_prompt,omitempty"`
	Model         string `json:"model,omitempty"`
	PackageName   string `json:"package_name,omitempty"`
	RepositoryURL string `json:"github_url,omitempty"`

	// question_response: a string or an ordered sequence of strings.
	Answer json.RawMessage `json:"answer,omitempty"`

	// user_message
	Text string `json:"text,omitempty"`
}

// ParseClientMessage decodes a raw channel frame. Frames that are not
// valid JSON objects are treated as freeform text.
func ParseClientMessage(raw []byte) *ClientMessage {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		return &ClientMessage{Type: TypeUserMessage, Text: string(raw)}
	}
	return &msg
}

// AnswerValues normalises the answer payload to an ordered string slice.
func (m *ClientMessage) AnswerValues() ([]string, error) {
	if len(m.Answer) == 0 {
		return nil, fmt.Errorf("question_response carries no answer")
	}
	var single string
	if err := json.Unmarshal(m.Answer, &single); err == nil {
		return []string{single}, nil
	}
	var multi []string
	if err := json.Unmarshal(m.Answer, &multi); err == nil {
		return multi, nil
	}
	return nil, fmt.Errorf("answer must be a string or an array of strings")
}
