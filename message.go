package cradle

import (
	"fmt"
	"strings"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// PartType tags the variant held by a Part.
type PartType string

const (
	// PartTypeText marks a text part. Every other type is opaque.
	PartTypeText PartType = "text"
	// PartTypeImage marks an image part whose Payload is an Image.
	PartTypeImage PartType = "image"
)

// Part is a single piece of message content.
// Text parts carry Text. Any other Type is opaque: Payload is passed through to
// backends that understand it and is never inspected by routing logic.
type Part struct {
	Type    PartType `json:"type"`
	Text    string   `json:"text,omitempty"`
	Payload any      `json:"payload,omitempty"`
}

// IsText reports whether the part is a text part.
func (p Part) IsText() bool { return p.Type == PartTypeText }

// Image is the payload of an image part. Set either URL or Base64.
type Image struct {
	URL      string `json:"url,omitempty"`
	Base64   string `json:"base64,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewImageURLPart creates an image part from a URL.
func NewImageURLPart(url string) Part {
	return Part{Type: PartTypeImage, Payload: Image{URL: url}}
}

// NewImageBase64Part creates an image part from base64 data.
func NewImageBase64Part(base64Data, mimeType string) Part {
	return Part{Type: PartTypeImage, Payload: Image{Base64: base64Data, MimeType: mimeType}}
}

// NewOpaquePart creates a non-text part of an arbitrary kind.
func NewOpaquePart(kind PartType, payload any) Part {
	return Part{Type: kind, Payload: payload}
}

// Message is a single chat turn.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewMessage creates a message with a single text part.
func NewMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{NewTextPart(text)}}
}

// Text joins the message's text parts with newlines.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.IsText() {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// HasOpaque reports whether the message contains any non-text part.
func (m Message) HasOpaque() bool {
	for _, p := range m.Parts {
		if !p.IsText() {
			return true
		}
	}
	return false
}

// CompletionRequest is the uniform request accepted by every provider.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	Temperature float64   `json:"temperature"`
	// Seed is forwarded to backends that support it and ignored by the rest.
	Seed      *int `json:"seed,omitempty"`
	MaxTokens int  `json:"maxTokens"`
}

// Validate checks the request invariants. It never touches the network.
func (r *CompletionRequest) Validate() error {
	if r == nil || len(r.Messages) == 0 {
		return fmt.Errorf("%w: at least one message is required", ErrEmptyInput)
	}
	for i, m := range r.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidRequest, i, m.Role)
		}
		if len(m.Parts) == 0 {
			return fmt.Errorf("%w: message %d has no content", ErrEmptyInput, i)
		}
	}
	if r.MaxTokens < 1 {
		return fmt.Errorf("%w: max tokens must be at least 1, got %d", ErrInvalidRequest, r.MaxTokens)
	}
	return nil
}

// WithMessages returns a copy of the request carrying different messages.
func (r *CompletionRequest) WithMessages(messages []Message) *CompletionRequest {
	cp := *r
	cp.Messages = messages
	return &cp
}

// Usage contains token usage reported by a backend.
// Every field is zero when the backend does not report usage.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// CompletionResult is the normalized answer of a provider.
type CompletionResult struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
	// Backend names the family that produced the text.
	Backend Family `json:"backend,omitempty"`
}

// AsyncResult is delivered by CompleteAsync.
type AsyncResult struct {
	Result *CompletionResult
	Err    error
}
