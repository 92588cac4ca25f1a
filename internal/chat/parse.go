package chat

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ParseRequest extracts the model id and messages from a raw chat completion
// body. The second return value is false when the body does not look like a
// chat completion request (no messages array, or any message whose content is
// not a plain string — multimodal content blocks are never rewritten); callers
// should forward such bodies unchanged.
func ParseRequest(body []byte) (Request, bool) {
	msgs := gjson.GetBytes(body, "messages")
	if !msgs.IsArray() {
		return Request{}, false
	}

	req := Request{Model: gjson.GetBytes(body, "model").String()}
	plain := true
	msgs.ForEach(func(_, m gjson.Result) bool {
		content := m.Get("content")
		if content.Exists() && content.Type != gjson.String {
			plain = false
			return false
		}
		req.Messages = append(req.Messages, Message{
			Role:    Role(m.Get("role").String()),
			Content: content.String(),
		})
		return true
	})
	if !plain {
		return Request{}, false
	}
	return req, true
}

// PatchMessages writes rewritten message contents back into the original body,
// leaving every other field untouched. Only messages whose content actually
// changed are patched, so a passthrough request stays byte-identical.
func PatchMessages(body []byte, original, rewritten []Message) ([]byte, error) {
	if len(original) != len(rewritten) {
		return nil, fmt.Errorf("message count mismatch: %d != %d", len(original), len(rewritten))
	}

	out := body
	for i := range rewritten {
		if rewritten[i].Content == original[i].Content {
			continue
		}
		patched, err := sjson.SetBytes(out, fmt.Sprintf("messages.%d.content", i), rewritten[i].Content)
		if err != nil {
			return nil, fmt.Errorf("failed to patch message %d: %w", i, err)
		}
		out = patched
	}
	return out, nil
}
