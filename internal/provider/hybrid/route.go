package hybrid

import (
	"strings"

	"github.com/spetersoncode/cradle"
)

// Route names the backend a request is dispatched to.
type Route string

const (
	// RouteText sends the request to the text backend (Gemini).
	RouteText Route = "text"
	// RouteMedia sends the request to the media backend (OpenAI).
	RouteMedia Route = "media"
)

// Keywords force a request onto the media backend, whatever its content types.
// Matching is by substring of the lowercased text, so "clicked" and "gunfire" match.
var Keywords = []string{
	"shoot", "fight", "kill", "weapon", "gun", "combat",
	"attack", "violence", "press", "hold", "click",
}

// RefusalPatterns mark a media backend answer as a policy refusal.
var RefusalPatterns = []string{
	"i'm sorry",
	"i can't assist",
	"i cannot help",
	"not appropriate",
	"against my guidelines",
}

// sanitizer rewrites combat vocabulary. Replacement words never contain a
// keyword, so applying it twice equals applying it once. Matching is
// case-sensitive.
var sanitizer = strings.NewReplacer(
	"shoot", "target",
	"fight", "engage",
	"kill", "defeat",
	"weapon", "tool",
	"gun", "device",
	"combat", "interaction",
	"attack", "approach",
	"violence", "action",
)

// Decision is the routing outcome for one request.
type Decision struct {
	// Route is the backend the request goes to first.
	Route Route
	// Media reports whether any part of any message is non-text.
	Media bool
	// Keyword is the first matched keyword, empty when none matched.
	Keyword string
}

// KeywordOverride reports whether a keyword forced the media route. Only then
// is the answer checked for a refusal.
func (d Decision) KeywordOverride() bool { return d.Keyword != "" }

// Classify decides the route of messages.
func Classify(messages []cradle.Message) Decision {
	d := Decision{Route: RouteText}
	for _, m := range messages {
		if m.HasOpaque() {
			d.Media = true
			break
		}
	}
	d.Keyword = MatchKeyword(messages)
	if d.Media || d.Keyword != "" {
		d.Route = RouteMedia
	}
	return d
}

// MatchKeyword returns the first keyword contained in the lowercased,
// space-joined text parts of messages, or "".
func MatchKeyword(messages []cradle.Message) string {
	var texts []string
	for _, m := range messages {
		for _, p := range m.Parts {
			if p.IsText() {
				texts = append(texts, p.Text)
			}
		}
	}
	content := strings.ToLower(strings.Join(texts, " "))
	for _, kw := range Keywords {
		if strings.Contains(content, kw) {
			return kw
		}
	}
	return ""
}

// IsRefusal reports whether text reads as a policy refusal.
func IsRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range RefusalPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// SanitizeText applies the substitution table to text.
func SanitizeText(text string) string {
	return sanitizer.Replace(text)
}

// Sanitize returns a copy of messages with every text part rewritten.
// Non-text parts are kept as they are.
func Sanitize(messages []cradle.Message) []cradle.Message {
	out := make([]cradle.Message, len(messages))
	for i, m := range messages {
		parts := make([]cradle.Part, len(m.Parts))
		for j, p := range m.Parts {
			if p.IsText() {
				p.Text = SanitizeText(p.Text)
			}
			parts[j] = p
		}
		out[i] = cradle.Message{Role: m.Role, Parts: parts}
	}
	return out
}
