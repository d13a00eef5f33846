// Package llms provides the conversation types shared by the orchestration loop
// and the model backends: messages, tool-call requests, model responses and the
// Model interface every backend implements.
//
// Each subpackage contains a provider-specific implementation of Model.
// The internal directories within these subpackages contain provider-specific
// client and wire-format code.
//
// The `llms.go` file contains the Model interface and provider capabilities.
//
// The `options.go` file provides the per-call options and tool definitions.
package llms
