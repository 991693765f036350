package claude

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/cradle"
)

func convertMessages(messages []cradle.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		switch msg.Role {
		case cradle.RoleSystem:
			// Skip empty system messages - Anthropic API rejects empty text blocks
			if text := msg.Text(); text != "" {
				system = append(system, anthropic.TextBlockParam{Text: text})
			}
		case cradle.RoleAssistant:
			if text := msg.Text(); text != "" {
				result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
			}
		default:
			blocks := convertParts(msg.Parts)
			if len(blocks) > 0 {
				result = append(result, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleUser,
					Content: blocks,
				})
			}
		}
	}

	return result, system
}

func convertParts(parts []cradle.Part) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range parts {
		if part.IsText() {
			// Skip empty text parts - Anthropic API rejects empty text blocks
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
			continue
		}

		img, ok := part.Payload.(cradle.Image)
		if !ok {
			continue
		}
		switch {
		case img.Base64 != "":
			mediaType := img.MimeType
			if mediaType == "" {
				mediaType = "image/jpeg"
			}
			blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, img.Base64))
		case img.URL != "":
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{
				URL: img.URL,
			}))
		}
	}
	return blocks
}
