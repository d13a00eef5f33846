package assistants

import (
	"io"
	"os"

	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/prompts"
)

// Option is a function that can be used to modify the behavior of the Assistant Config.
type Option func(*Config)

type Config struct {
	// Model is the model to use in an LLM call.
	Model    string
	modelSet bool

	// MaxTokens is the maximum number of tokens to generate to use in an LLM call.
	MaxTokens    int
	maxTokensSet bool

	// Temperature is the temperature for sampling to use in an LLM call, between 0 and 1.
	Temperature    float64
	temperatureSet bool

	// StopWords is a list of words to stop on to use in an LLM call.
	StopWords    []string
	stopWordsSet bool

	// TopP is the cumulative probability for top-p sampling in an LLM call.
	TopP    float64
	toppSet bool

	// ToolChoice is the choice of tool to use, it can either be "none", "auto" (the default behavior), or a specific tool as described in the ToolChoice type.
	ToolChoice    any
	toolChoiceSet bool

	//
	// Below are the options for the Assistant, not related to LLM call
	//

	// CallbackHandler is the callback handler for the loop events
	CallbackHandler Callback

	// Verbose echoes the final response to Output
	Verbose bool
	// Output is the writer for the verbose echo, os.Stdout by default
	Output io.Writer

	// MaxRounds is the maximum number of tool rounds, 0 is unbounded.
	MaxRounds int

	// SystemPrompt is inserted at the start of the conversation by Invoke
	SystemPrompt prompts.FormatPrompter
	// PromptInput is the input of the system prompt template
	PromptInput map[string]any
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithModel is an option for LLM.Call.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
		o.modelSet = true
	}
}

// WithMaxTokens is an option for LLM.Call.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
		o.maxTokensSet = true
	}
}

// WithTemperature is an option for LLM.Call.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
		o.temperatureSet = true
	}
}

// WithTopP	will add an option to use top-p sampling for LLM.Call.
func WithTopP(topP float64) Option {
	return func(o *Config) {
		o.TopP = topP
		o.toppSet = true
	}
}

// WithStopWords is an option for setting the stop words for LLM.Call.
func WithStopWords(stopWords []string) Option {
	return func(o *Config) {
		o.StopWords = stopWords
		o.stopWordsSet = true
	}
}

// WithToolChoice is an option for LLM.Call.
func WithToolChoice(choice any) Option {
	return func(o *Config) {
		o.ToolChoice = choice
		o.toolChoiceSet = true
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithVerbose enables the echo of the final response.
func WithVerbose(verbose bool) Option {
	return func(o *Config) {
		o.Verbose = verbose
	}
}

// WithOutput sets the writer for the verbose echo.
func WithOutput(w io.Writer) Option {
	return func(o *Config) {
		o.Output = w
	}
}

// WithMaxRounds limits the number of tool rounds,
// the loop fails with ErrMaxRoundsExceeded when the model keeps requesting tools.
// 0 means no limit.
func WithMaxRounds(n int) Option {
	return func(o *Config) {
		o.MaxRounds = n
	}
}

// WithSystemPrompt sets the system prompt text.
// The text is inserted as is, without template rendering.
func WithSystemPrompt(text string) Option {
	return func(o *Config) {
		o.SystemPrompt = prompts.Text(text)
	}
}

// WithSystemPromptTemplate sets the system prompt template.
func WithSystemPromptTemplate(tmpl prompts.FormatPrompter) Option {
	return func(o *Config) {
		o.SystemPrompt = tmpl
	}
}

// WithPromptInput is an option that allows the user to specify the system prompt input.
func WithPromptInput(input map[string]any) Option {
	return func(o *Config) {
		o.PromptInput = input
	}
}

// GetCallOptions returns the LLM call options, with the tool definitions if any.
func (c *Config) GetCallOptions(tools []llms.Tool) []llms.CallOption {
	var callOptions []llms.CallOption
	if c.modelSet {
		callOptions = append(callOptions, llms.WithModel(c.Model))
	}
	if c.maxTokensSet {
		callOptions = append(callOptions, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.temperatureSet {
		callOptions = append(callOptions, llms.WithTemperature(c.Temperature))
	}
	if c.stopWordsSet {
		callOptions = append(callOptions, llms.WithStopWords(c.StopWords))
	}
	if c.toppSet {
		callOptions = append(callOptions, llms.WithTopP(c.TopP))
	}
	if len(tools) > 0 {
		callOptions = append(callOptions, llms.WithTools(tools))
		if c.toolChoiceSet {
			callOptions = append(callOptions, llms.WithToolChoice(c.ToolChoice))
		}
	}
	return callOptions
}
