package chatmodel

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrConfiguration is returned for invalid setup or input,
	// before any network interaction.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnsupportedQuery is returned when the query is not text, a message or a sequence of messages.
	ErrUnsupportedQuery = errors.Mark(errors.New("unsupported query type"), ErrConfiguration)
	// ErrUnknownTool is returned when the model requests a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidToolArguments is returned when the tool arguments are not a JSON object,
	// or do not match the tool schema.
	ErrInvalidToolArguments = errors.New("invalid tool arguments")
	// ErrFailedUnmarshalInput is returned when a typed tool can not decode its arguments.
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")
	// ErrMaxRoundsExceeded is returned when the loop did not finish in the configured number of rounds.
	ErrMaxRoundsExceeded = errors.New("maximum rounds exceeded")
)

// ContentProvider is an interface for values that provide the content for the chat history
type ContentProvider interface {
	GetContent() string
}

type Stringer interface {
	String() string
}
