package googleai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llms/googleai/internal/genaiutils"
	"github.com/effective-security/xlog"
	"google.golang.org/genai"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "googleai")

var (
	ErrNoContentInResponse   = errors.Mark(errors.New("no content in generation response"), llms.ErrEmptyResponse)
	ErrUnknownPartInResponse = errors.New("unknown part type in generation response")
)

const (
	CITATIONS = "citations"
	SAFETY    = "safety"
	RoleModel = "model"
	RoleUser  = "user"
)

// GetName implements the Model interface.
func (g *GoogleAI) GetName() string {
	return g.opts.DefaultModel
}

// GetProviderType implements the Model interface.
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent implements the [llms.Model] interface.
func (g *GoogleAI) GenerateContent(
	ctx context.Context,
	messages []llms.Message,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{
		Model:       g.opts.DefaultModel,
		MaxTokens:   g.opts.DefaultMaxTokens,
		Temperature: g.opts.DefaultTemperature,
		TopP:        g.opts.DefaultTopP,
	}, options...)

	callCfg, err := g.newConfig(opts)
	if err != nil {
		return nil, err
	}

	history, system, err := ConvertMessages(messages)
	if err != nil {
		return nil, err
	}
	callCfg.SystemInstruction = system

	resp, err := g.client.Models.GenerateContent(ctx, opts.Model, history, callCfg)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrNoContentInResponse
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"model", opts.Model,
		"candidates", len(resp.Candidates),
		"finish_reason", resp.Candidates[0].FinishReason,
	)
	return convertCandidates(resp.Candidates, resp.UsageMetadata)
}

func (g *GoogleAI) newConfig(opts *llms.CallOptions) (*genai.GenerateContentConfig, error) {
	// Populate generation controls from generic llms options
	callCfg := &genai.GenerateContentConfig{
		StopSequences:   opts.StopWords,
		CandidateCount:  int32(g.opts.DefaultCandidateCount),
		MaxOutputTokens: int32(opts.MaxTokens),
		Temperature:     genaiutils.Float32Ptr(float32(opts.Temperature)),
		TopP:            genaiutils.Float32Ptr(float32(opts.TopP)),
		TopK:            genaiutils.Float32Ptr(float32(g.opts.DefaultTopK)),
	}

	for _, category := range []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	} {
		callCfg.SafetySettings = append(callCfg.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: g.opts.HarmThreshold,
		})
	}

	var err error
	if callCfg.Tools, err = genaiutils.ConvertTools(opts.Tools); err != nil {
		return nil, err
	}
	if len(callCfg.Tools) > 0 {
		if callCfg.ToolConfig, err = genaiutils.ConvertToolChoice(opts.ToolChoice); err != nil {
			return nil, err
		}
	}
	return callCfg, nil
}

// ConvertMessages converts the messages to the contents of the request.
//
// The system messages are joined into the system instruction.
// Tool results are sent as function responses of a user turn,
// the results of consecutive tool messages share one turn.
func ConvertMessages(messages []llms.Message) ([]*genai.Content, *genai.Content, error) {
	history := make([]*genai.Content, 0, len(messages))
	var system []string
	var responses *genai.Content

	flush := func() {
		if responses != nil {
			history = append(history, responses)
			responses = nil
		}
	}

	for _, msg := range messages {
		if msg.Role != llms.RoleTool {
			flush()
		}
		switch msg.Role {
		case llms.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
		case llms.RoleUser:
			history = append(history, genai.NewContentFromText(msg.Content, RoleUser))
		case llms.RoleAssistant:
			content, err := convertAssistant(msg)
			if err != nil {
				return nil, nil, err
			}
			history = append(history, content)
		case llms.RoleTool:
			if responses == nil {
				responses = &genai.Content{Role: RoleUser}
			}
			responses.Parts = append(responses.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:   msg.ToolCallID,
					Name: msg.Name,
					Response: map[string]any{
						"output": msg.Content,
					},
				},
			})
		default:
			return nil, nil, errors.Errorf("role %v not supported", msg.Role)
		}
	}
	flush()

	var systemInstruction *genai.Content
	if len(system) > 0 {
		systemInstruction = genai.NewContentFromText(strings.Join(system, "\n"), RoleUser)
	}
	return history, systemInstruction, nil
}

func convertAssistant(msg llms.Message) (*genai.Content, error) {
	c := &genai.Content{Role: RoleModel}
	if msg.Content != "" {
		c.Parts = append(c.Parts, genai.NewPartFromText(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if raw := strings.TrimSpace(tc.Arguments()); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal tool call arguments: %s", tc.ID)
			}
		}
		c.Parts = append(c.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Name(),
				Args: args,
			},
		})
	}
	if len(c.Parts) == 0 {
		c.Parts = append(c.Parts, genai.NewPartFromText(""))
	}
	return c, nil
}

// convertCandidates converts a sequence of genai.Candidate to a response.
func convertCandidates(candidates []*genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata) (*llms.ContentResponse, error) {
	var contentResponse llms.ContentResponse

	for _, candidate := range candidates {
		buf := strings.Builder{}
		var toolCalls []llms.ToolCall

		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				switch {
				case part.Thought:
					// thoughts are not part of the conversation
				case part.FunctionCall != nil:
					b, err := json.Marshal(part.FunctionCall.Args)
					if err != nil {
						return nil, errors.WithStack(err)
					}
					toolCalls = append(toolCalls, llms.ToolCall{
						ID:   part.FunctionCall.ID,
						Type: llms.ToolTypeFunction,
						FunctionCall: &llms.FunctionCall{
							Name:      part.FunctionCall.Name,
							Arguments: string(b),
						},
					})
				case part.Text != "":
					buf.WriteString(part.Text)
				case part.InlineData != nil, part.FileData != nil:
					return nil, errors.WithMessage(ErrUnknownPartInResponse, "not text or tool")
				}
			}
		}

		metadata := make(map[string]any)
		metadata[CITATIONS] = candidate.CitationMetadata
		metadata[SAFETY] = candidate.SafetyRatings

		if usage != nil {
			metadata["InputTokens"] = int64(usage.PromptTokenCount)
			metadata["CacheReadTokens"] = int64(usage.CachedContentTokenCount)
			metadata["OutputTokens"] = int64(usage.CandidatesTokenCount + usage.ToolUsePromptTokenCount + usage.ThoughtsTokenCount)
			metadata["TotalTokens"] = int64(usage.TotalTokenCount)
		}

		contentResponse.Choices = append(contentResponse.Choices,
			&llms.ContentChoice{
				Content:        buf.String(),
				StopReason:     string(candidate.FinishReason),
				GenerationInfo: metadata,
				ToolCalls:      toolCalls,
			})
	}
	return &contentResponse, nil
}
