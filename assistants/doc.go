// Package assistants provides the tool-calling orchestration loop: the model is called
// with the conversation and the registered tool schemas, the requested tools are
// executed in order, and their results are fed back until the model answers without tool calls.
package assistants
