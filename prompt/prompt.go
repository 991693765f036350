// Package prompt turns structured chat messages into plain text for backends
// that take a single prompt string, and fills prompt templates.
//
// Flattening keeps only text: for each message it emits one "<Role>: <text>"
// line, where the text parts of the message are joined with newlines. Opaque
// parts such as images are dropped, so multi-modal content only reaches
// backends with native structured input.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spetersoncode/cradle"
)

// Flatten converts messages into a single prompt string.
// The output is deterministic and preserves message order.
func Flatten(messages []cradle.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, roleLabel(m.Role)+": "+m.Text())
	}
	return strings.Join(lines, "\n")
}

// Omitted counts the opaque parts Flatten drops.
func Omitted(messages []cradle.Message) int {
	n := 0
	for _, m := range messages {
		for _, p := range m.Parts {
			if !p.IsText() {
				n++
			}
		}
	}
	return n
}

// WordCount approximates a token count by counting whitespace-delimited words of
// the flattened prompt. It is an estimate for budgeting only; real tokenizers
// usually report more tokens than words.
func WordCount(messages []cradle.Message) int {
	return len(strings.Fields(Flatten(messages)))
}

func roleLabel(r cradle.Role) string {
	if r == "" {
		r = cradle.RoleUser
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

var placeholder = regexp.MustCompile(`<\$([A-Za-z0-9_]+)\$>`)

// Build replaces every <$name$> placeholder in template with params[name].
//
// Strings are inserted as-is, string slices are joined with newlines and other
// values are formatted with %v. Placeholders without a matching param are left
// untouched so that missing inputs stay visible in the rendered prompt.
func Build(template string, params map[string]any) string {
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		v, ok := params[name]
		if !ok {
			return match
		}
		return render(v)
	})
}

// Missing lists placeholder names in template that params does not provide,
// in order of first appearance.
func Missing(template string, params map[string]any) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if _, ok := params[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, "\n")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
