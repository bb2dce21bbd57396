package protocol

import (
	"encoding/json"
	"testing"

	"github.com/forgeworks/agentwizard/internal/domain"
)

func TestQuestionCardFields(t *testing.T) {
	q := &domain.Question{
		ID:            "sess/q1",
		Text:          "Which packages?",
		Options:       []string{"neo", "elephant"},
		AllowMultiple: true,
		MaxLength:     200,
	}

	data, err := json.Marshal(QuestionCard(q))
	if err != nil {
		t.Fatalf("Failed to marshal question card: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to decode question card: %v", err)
	}
	if got["type"] != TypeQuestionCard {
		t.Errorf("Expected type %q, got %v", TypeQuestionCard, got["type"])
	}
	if got["question"] != "Which packages?" {
		t.Errorf("Expected question text, got %v", got["question"])
	}
	if got["allow_multiple"] != true {
		t.Errorf("Expected allow_multiple=true, got %v", got["allow_multiple"])
	}
	if _, present := got["allow_freetext"]; present {
		t.Errorf("Expected allow_freetext omitted when false, got %v", got["allow_freetext"])
	}
}

func TestParseClientMessage_QuestionResponse(t *testing.T) {
	msg := ParseClientMessage([]byte(`{"type":"question_response","answer":["neo","elephant"]}`))
	if msg.Type != TypeQuestionResponse {
		t.Fatalf("Expected question_response, got %q", msg.Type)
	}
	values, err := msg.AnswerValues()
	if err != nil {
		t.Fatalf("Failed to extract answer values: %v", err)
	}
	if len(values) != 2 || values[0] != "neo" || values[1] != "elephant" {
		t.Errorf("Expected ordered [neo elephant], got %v", values)
	}
}

func TestParseClientMessage_SingleStringAnswer(t *testing.T) {
	msg := ParseClientMessage([]byte(`{"type":"question_response","answer":"markdown"}`))
	values, err := msg.AnswerValues()
	if err != nil {
		t.Fatalf("Failed to extract answer values: %v", err)
	}
	if len(values) != 1 || values[0] != "markdown" {
		t.Errorf("Expected [markdown], got %v", values)
	}
}

func TestParseClientMessage_RawTextFallback(t *testing.T) {
	msg := ParseClientMessage([]byte("hello wizard"))
	if msg.Type != TypeUserMessage {
		t.Fatalf("Expected user_message fallback, got %q", msg.Type)
	}
	if msg.Text != "hello wizard" {
		t.Errorf("Expected raw text preserved, got %q", msg.Text)
	}
}

func TestAnswerValues_BadShape(t *testing.T) {
	msg := &ClientMessage{Type: TypeQuestionResponse, Answer: json.RawMessage(`{"a":1}`)}
	if _, err := msg.AnswerValues(); err == nil {
		t.Error("Expected error for object-shaped answer")
	}
	empty := &ClientMessage{Type: TypeQuestionResponse}
	if _, err := empty.AnswerValues(); err == nil {
		t.Error("Expected error for missing answer")
	}
}
