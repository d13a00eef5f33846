// Package llmfactory creates the models of the configured providers
// (OpenRouter, OpenAI, Azure, Anthropic, Google AI and Bedrock) and selects them by name or type.
package llmfactory
