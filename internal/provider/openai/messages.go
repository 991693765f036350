package openai

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/cradle"
)

// convertMessages maps cradle messages onto chat message params. System and
// assistant turns carry their joined text; user turns keep every text and image
// part in order. It returns the number of parts that have no OpenAI form.
func convertMessages(messages []cradle.Message) ([]openai.ChatCompletionMessageParamUnion, int) {
	var result []openai.ChatCompletionMessageParamUnion
	dropped := 0
	for _, msg := range messages {
		switch msg.Role {
		case cradle.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))
			dropped += countOpaque(msg.Parts)
		case cradle.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Text()))
			dropped += countOpaque(msg.Parts)
		default:
			parts, n := convertParts(msg.Parts)
			dropped += n
			if len(parts) == 0 {
				result = append(result, openai.UserMessage(""))
				continue
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			})
		}
	}
	return result, dropped
}

func convertParts(parts []cradle.Part) ([]openai.ChatCompletionContentPartUnionParam, int) {
	var result []openai.ChatCompletionContentPartUnionParam
	dropped := 0
	for _, part := range parts {
		if part.IsText() {
			if part.Text != "" {
				result = append(result, openai.TextContentPart(part.Text))
			}
			continue
		}
		url, ok := imageURL(part)
		if !ok {
			dropped++
			continue
		}
		result = append(result, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: url,
		}))
	}
	return result, dropped
}

// imageURL returns the URL or data URI of an image part.
func imageURL(part cradle.Part) (string, bool) {
	var img cradle.Image
	switch v := part.Payload.(type) {
	case cradle.Image:
		img = v
	case *cradle.Image:
		if v == nil {
			return "", false
		}
		img = *v
	default:
		return "", false
	}

	if img.Base64 != "" {
		mimeType := img.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		return fmt.Sprintf("data:%s;base64,%s", mimeType, img.Base64), true
	}
	if img.URL != "" {
		return img.URL, true
	}
	return "", false
}

func countOpaque(parts []cradle.Part) int {
	n := 0
	for _, p := range parts {
		if !p.IsText() {
			n++
		}
	}
	return n
}
