package store

import (
	"github.com/effective-security/agentloop/pkg/llms"
)

// MessageStore is the ordered message history of one conversation.
// A MessageStore is owned by a single loop invocation, and it is not safe
// for concurrent use.
type MessageStore interface {
	// Messages returns a copy of the history
	Messages() []llms.Message
	// Append adds the messages to the end of the history
	Append(msgs ...llms.Message)
	// InsertSystemMessage sets the standing instructions of the conversation:
	// an existing system message at the start is replaced,
	// otherwise the message is prepended.
	InsertSystemMessage(msg llms.Message)
	// Clear empties the history
	Clear()
	// Len returns the number of messages
	Len() int
	// Last returns the most recent message
	Last() (llms.Message, bool)
}
