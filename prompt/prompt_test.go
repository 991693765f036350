package prompt

import (
	"testing"

	"github.com/spetersoncode/cradle"
	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		messages []cradle.Message
		expected string
	}{
		{
			name:     "single user message",
			messages: []cradle.Message{cradle.NewMessage(cradle.RoleUser, "describe the terrain")},
			expected: "User: describe the terrain",
		},
		{
			name: "one line per message in order",
			messages: []cradle.Message{
				cradle.NewMessage(cradle.RoleSystem, "You play a cowboy."),
				cradle.NewMessage(cradle.RoleUser, "Where is the horse?"),
				cradle.NewMessage(cradle.RoleAssistant, "Behind the barn."),
			},
			expected: "System: You play a cowboy.\nUser: Where is the horse?\nAssistant: Behind the barn.",
		},
		{
			name: "text parts joined with newlines",
			messages: []cradle.Message{{
				Role:  cradle.RoleUser,
				Parts: []cradle.Part{cradle.NewTextPart("first"), cradle.NewTextPart("second")},
			}},
			expected: "User: first\nsecond",
		},
		{
			name: "opaque parts contribute nothing",
			messages: []cradle.Message{{
				Role: cradle.RoleUser,
				Parts: []cradle.Part{
					cradle.NewTextPart("look at this"),
					cradle.NewImageURLPart("https://example.com/frame.jpg"),
				},
			}},
			expected: "User: look at this",
		},
		{
			name: "image-only message keeps its role line",
			messages: []cradle.Message{{
				Role:  cradle.RoleUser,
				Parts: []cradle.Part{cradle.NewImageBase64Part("aGVsbG8=", "image/png")},
			}},
			expected: "User: ",
		},
		{
			name:     "empty input",
			messages: nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Flatten(tt.messages))
		})
	}
}

func TestFlattenIsDeterministic(t *testing.T) {
	messages := []cradle.Message{
		cradle.NewMessage(cradle.RoleSystem, "rules"),
		{Role: cradle.RoleUser, Parts: []cradle.Part{
			cradle.NewTextPart("a"),
			cradle.NewOpaquePart("audio", []byte{1, 2, 3}),
			cradle.NewTextPart("b"),
		}},
	}

	first := Flatten(messages)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Flatten(messages))
	}
}

func TestOmitted(t *testing.T) {
	messages := []cradle.Message{
		{Role: cradle.RoleUser, Parts: []cradle.Part{
			cradle.NewTextPart("a"),
			cradle.NewImageURLPart("https://example.com/1.png"),
		}},
		{Role: cradle.RoleUser, Parts: []cradle.Part{
			cradle.NewOpaquePart("audio", nil),
		}},
	}
	assert.Equal(t, 2, Omitted(messages))
	assert.Equal(t, 0, Omitted([]cradle.Message{cradle.NewMessage(cradle.RoleUser, "x")}))
}

func TestWordCount(t *testing.T) {
	messages := []cradle.Message{
		cradle.NewMessage(cradle.RoleSystem, "be brief"),
		cradle.NewMessage(cradle.RoleUser, "  ride   to\tValentine \n now "),
	}
	// "System:" "be" "brief" "User:" "ride" "to" "Valentine" "now"
	assert.Equal(t, 8, WordCount(messages))
	assert.Equal(t, 0, WordCount(nil))
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]any
		expected string
	}{
		{
			name:     "string param",
			template: "Task: <$task$>.",
			params:   map[string]any{"task": "find the horse"},
			expected: "Task: find the horse.",
		},
		{
			name:     "string slice joined with newlines",
			template: "Skills:\n<$skills$>",
			params:   map[string]any{"skills": []string{"move_forward()", "turn(90)"}},
			expected: "Skills:\nmove_forward()\nturn(90)",
		},
		{
			name:     "number formatted",
			template: "Step <$step$>",
			params:   map[string]any{"step": 3},
			expected: "Step 3",
		},
		{
			name:     "repeated placeholder",
			template: "<$a$>-<$a$>",
			params:   map[string]any{"a": "x"},
			expected: "x-x",
		},
		{
			name:     "missing param left in place",
			template: "Goal: <$goal$>",
			params:   map[string]any{},
			expected: "Goal: <$goal$>",
		},
		{
			name:     "nil param renders empty",
			template: "[<$memo$>]",
			params:   map[string]any{"memo": nil},
			expected: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Build(tt.template, tt.params))
		})
	}
}

func TestMissing(t *testing.T) {
	template := "<$a$> <$b$> <$a$> <$c$>"
	assert.Equal(t, []string{"a", "c"}, Missing(template, map[string]any{"b": 1}))
	assert.Nil(t, Missing(template, map[string]any{"a": 1, "b": 2, "c": 3}))
}
