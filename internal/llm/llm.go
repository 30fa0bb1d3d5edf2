package llm

import (
	"context"
	"errors"
)

// Message roles understood by Chat.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of a generation request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the minimal surface the build pipeline needs from a generation
// service: send an ordered list of messages, get the assistant's reply text.
// No structure beyond "it is text" is guaranteed.
type Client interface {
	Name() string
	Chat(ctx context.Context, msgs []Message, temperature float32) (string, error)
	Close() error
}

// ErrEmptyReply is returned when the service answers with no candidates.
var ErrEmptyReply = errors.New("llm: empty reply from model")
