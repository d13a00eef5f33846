package assistants

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/chatmodel"
	"github.com/effective-security/agentloop/pkg/llms"
)

// Query is the input of Invoke:
// TextQuery, MessageQuery or SequenceQuery.
type Query interface {
	// Messages returns the canonical ordered sequence of the query.
	Messages() ([]llms.Message, error)
	isQuery()
}

// TextQuery is a bare text, sent as a single user message
type TextQuery string

// MessageQuery is a single message
type MessageQuery struct {
	Message llms.Message
}

// SequenceQuery is an ordered sequence of messages, used as is
type SequenceQuery []llms.Message

func (TextQuery) isQuery()     {}
func (MessageQuery) isQuery()  {}
func (SequenceQuery) isQuery() {}

func (q TextQuery) Messages() ([]llms.Message, error) {
	return []llms.Message{llms.UserMessage(string(q))}, nil
}

func (q MessageQuery) Messages() ([]llms.Message, error) {
	if err := q.Message.Validate(); err != nil {
		return nil, errors.Mark(errors.WithMessage(err, "invalid query message"), chatmodel.ErrConfiguration)
	}
	return []llms.Message{q.Message.Clone()}, nil
}

func (q SequenceQuery) Messages() ([]llms.Message, error) {
	if len(q) == 0 {
		return nil, errors.Mark(errors.New("empty query sequence"), chatmodel.ErrConfiguration)
	}
	list := make([]llms.Message, 0, len(q))
	for i, m := range q {
		if err := m.Validate(); err != nil {
			return nil, errors.Mark(errors.WithMessagef(err, "invalid query message %d", i), chatmodel.ErrConfiguration)
		}
		list = append(list, m.Clone())
	}
	return list, nil
}

// NewQuery maps a string, a message or a sequence of messages to a Query.
// Other types return ErrUnsupportedQuery.
func NewQuery(v any) (Query, error) {
	switch q := v.(type) {
	case Query:
		return q, nil
	case string:
		return TextQuery(q), nil
	case llms.Message:
		return MessageQuery{Message: q}, nil
	case *llms.Message:
		if q != nil {
			return MessageQuery{Message: *q}, nil
		}
	case []llms.Message:
		return SequenceQuery(q), nil
	}
	return nil, errors.WithMessagef(chatmodel.ErrUnsupportedQuery, "%T", v)
}
