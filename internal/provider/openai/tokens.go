package openai

import (
	"fmt"

	"github.com/spetersoncode/cradle"
	"github.com/tiktoken-go/tokenizer"
)

// Chat formatting overhead: each message costs 3 tokens plus 1 for the role,
// and every reply is primed with 3 more.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
	replyPriming     = 3
)

// EstimateTokenCount encodes every text part with the tiktoken encoding of the
// configured model and adds the chat formatting overhead. Image parts are not
// counted.
func (p *Provider) EstimateTokenCount(messages []cradle.Message) (int, error) {
	if err := p.CheckReady(); err != nil {
		return 0, err
	}
	codec, err := p.getCodec()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage + tokensPerRole
		for _, part := range msg.Parts {
			if !part.IsText() {
				continue
			}
			ids, _, err := codec.Encode(part.Text)
			if err != nil {
				return 0, fmt.Errorf("encode message text: %w", err)
			}
			total += len(ids)
		}
	}
	if len(messages) > 0 {
		total += replyPriming
	}
	return total, nil
}

// getCodec returns the codec for the configured model, falling back to
// o200k_base for models the tokenizer does not know.
func (p *Provider) getCodec() (tokenizer.Codec, error) {
	p.codecOnce.Do(func() {
		codec, err := tokenizer.ForModel(tokenizer.Model(p.model))
		if err == nil {
			p.codec = codec
			return
		}
		p.codec, p.codecErr = tokenizer.Get(tokenizer.O200kBase)
		if p.codecErr != nil {
			p.codecErr = fmt.Errorf("failed to get tokenizer encoding: %w", p.codecErr)
		}
	})
	return p.codec, p.codecErr
}
