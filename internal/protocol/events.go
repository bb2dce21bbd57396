// Package protocol defines the wire contract for the wizard channel: a
// tagged union of server event kinds plus the client-to-server messages.
// The server is the sole authority on type values and required fields.
package protocol

import "github.com/forgeworks/agentwizard/internal/domain"

// Server event type discriminants.
const (
	TypeStatus        = "status"
	TypeTextDelta     = "text_delta"
	TypeToolStart     = "tool_start"
	TypeToolComplete  = "tool_complete"
	TypeQuestionCard  = "question_card"
	TypeDownloadReady = "download_ready"
	TypeCrawlComplete = "crawl_complete"
	TypeResult        = "result"
	TypeError         = "error"
	TypeDone          = "done"
)

// ServerEvent is one JSON message from server to client. Exactly the
// fields relevant to Type are populated.
type ServerEvent struct {
	Type string `json:"type"`

	// status, text_delta, error
	Text string `json:"text,omitempty"`

	// tool_start, tool_complete
	Name    string `json:"name,omitempty"`
	Summary string `json:"summary,omitempty"`
	// tool_complete during extraction: which sections are filled so far.
	SectionsFilled []string `json:"sections_filled,omitempty"`

	// question_card
	QuestionID    string   `json:"question_id,omitempty"`
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`
	AllowFreetext bool     `json:"allow_freetext,omitempty"`
	MaxLength     int      `json:"max_length,omitempty"`

	// download_ready
	ProjectName  string            `json:"project_name,omitempty"`
	Files        []string          `json:"files,omitempty"`
	Instructions map[string]string `json:"instructions,omitempty"`
	DownloadURL  string            `json:"download_url,omitempty"`

	// crawl_complete
	Pages      int      `json:"pages,omitempty"`
	TotalChars int      `json:"total_chars,omitempty"`
	PageTitles []string `json:"page_titles,omitempty"`

	// result
	Markdown string `json:"markdown,omitempty"`
}

// Status reports progress text.
func Status(text string) *ServerEvent {
	return &ServerEvent{Type: TypeStatus, Text: text}
}

// TextDelta carries one incremental fragment of the agent's utterance.
// Fragments must be concatenated in arrival order; fragments of distinct
// utterances are never interleaved on one channel.
func TextDelta(text string) *ServerEvent {
	return &ServerEvent{Type: TypeTextDelta, Text: text}
}

// ToolStart announces a tool invocation.
func ToolStart(name string) *ServerEvent {
	return &ServerEvent{Type: TypeToolStart, Name: name}
}

// ToolComplete closes the matching ToolStart for name.
func ToolComplete(name, summary string) *ServerEvent {
	return &ServerEvent{Type: TypeToolComplete, Name: name, Summary: summary}
}

// QuestionCard suspends the workflow pending a human answer. Receipt
// terminates the current utterance: clients flush and start a new block.
func QuestionCard(q *domain.Question) *ServerEvent {
	return &ServerEvent{
		Type:          TypeQuestionCard,
		QuestionID:    q.ID,
		Question:      q.Text,
		Options:       q.Options,
		AllowMultiple: q.AllowMultiple,
		AllowFreetext: q.AllowFreetext,
		MaxLength:     q.MaxLength,
	}
}

// DownloadReady announces the finalized artifact descriptor.
func DownloadReady(d *domain.ArtifactDescriptor) *ServerEvent {
	return &ServerEvent{
		Type:         TypeDownloadReady,
		ProjectName:  d.ProjectName,
		Files:        d.Files,
		Instructions: d.Instructions,
		DownloadURL:  d.DownloadURL,
	}
}

// CrawlComplete reports the extraction crawl phase outcome.
func CrawlComplete(pages, totalChars int, titles []string) *ServerEvent {
	return &ServerEvent{Type: TypeCrawlComplete, Pages: pages, TotalChars: totalChars, PageTitles: titles}
}

// Result delivers a finalized extraction document.
func Result(markdown, downloadURL string) *ServerEvent {
	return &ServerEvent{Type: TypeResult, Markdown: markdown, DownloadURL: downloadURL}
}

// Error surfaces a recoverable failure to the operator.
func Error(text string) *ServerEvent {
	return &ServerEvent{Type: TypeError, Text: text}
}

// Done terminates the logical flow on the channel.
func Done() *ServerEvent {
	return &ServerEvent{Type: TypeDone}
}
