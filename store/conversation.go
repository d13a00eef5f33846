package store

import (
	"github.com/effective-security/agentloop/pkg/llms"
)

// Conversation is the in-memory MessageStore.
// Messages are copied on the way in and on the way out,
// so the history never aliases the caller's values.
type Conversation struct {
	messages []llms.Message
}

var _ MessageStore = (*Conversation)(nil)

// New returns a Conversation with a copy of the messages
func New(msgs ...llms.Message) *Conversation {
	c := &Conversation{}
	c.Append(msgs...)
	return c
}

func (c *Conversation) Messages() []llms.Message {
	res := make([]llms.Message, len(c.messages))
	for i, m := range c.messages {
		res[i] = m.Clone()
	}
	return res
}

func (c *Conversation) Append(msgs ...llms.Message) {
	for _, m := range msgs {
		c.messages = append(c.messages, m.Clone())
	}
}

func (c *Conversation) InsertSystemMessage(msg llms.Message) {
	msg = msg.Clone()
	msg.Role = llms.RoleSystem

	if len(c.messages) > 0 && c.messages[0].Role == llms.RoleSystem {
		c.messages[0] = msg
		return
	}
	c.messages = append([]llms.Message{msg}, c.messages...)
}

func (c *Conversation) Clear() {
	c.messages = nil
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) Last() (llms.Message, bool) {
	if len(c.messages) == 0 {
		return llms.Message{}, false
	}
	return c.messages[len(c.messages)-1].Clone(), true
}
