// Package chat models OpenAI-format chat completion requests.
//
// DESIGN: The gateway only needs the model id and the role/content of each
// message. Everything else in the request body (stream, options, tools, ...)
// is opaque and must survive a rewrite byte-for-byte, so parsing and patching
// are done with gjson/sjson surgery on the raw body rather than a full
// marshal/unmarshal cycle.
package chat

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message is a single role/content pair. Messages are treated as immutable;
// the filtering engine produces new slices rather than mutating in place.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request: model id plus ordered messages.
// Order is significant and always preserved.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}
