package tools

import (
	"context"

	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "tools")

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the JSON schema of the arguments object.
	Parameters() *jsonschema.Schema

	// Call executes the tool with the JSON arguments object and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput error.
	Call(ctx context.Context, args string) (string, error)
}

// Tool is a typed tool
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Callback receives the tool execution events from the Dispatcher.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, callID, input string)
	OnToolEnd(ctx context.Context, tool ITool, callID, input, output string)
	OnToolError(ctx context.Context, tool ITool, callID, input string, err error)
	OnToolNotFound(ctx context.Context, callID, name string)
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions returns the names and descriptions of the tools
// as JSON in backticks, to be used in the prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
