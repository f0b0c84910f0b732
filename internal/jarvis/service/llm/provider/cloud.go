package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

// chatModelFactory builds a concrete eino BaseChatModel for one provider
// given an API key, base URL override, and default model name. Each cloud
// provider file in this package supplies one of these.
type chatModelFactory func(ctx context.Context, apiKey, baseURL, model string) (model.BaseChatModel, error)

// newCloudProvider wraps an eino BaseChatModel factory into the facade's
// uniform entity.Provider contract, calling Generate directly rather than
// the full agentflow compose graph: Jarvis runs are bounded single-shot
// completions, not multi-turn chat loops with tool-call continuation.
func newCloudProvider(name, envKey, defaultModel string, prices entity.PriceTable, factory chatModelFactory) *entity.Provider {
	return &entity.Provider{
		Name:         name,
		DefaultModel: defaultModel,
		Prices:       prices,
		Complete: func(ctx context.Context, req entity.CompletionRequest) (entity.CompletionResponse, error) {
			modelName := req.Model
			if modelName == "" {
				modelName = defaultModel
			}
			cm, err := factory(ctx, os.Getenv(envKey), "", modelName)
			if err != nil {
				return entity.CompletionResponse{}, classifyVendorError(name, fmt.Errorf("build chat model: %w", err))
			}

			if len(req.Tools) > 0 {
				bound, err := bindTools(cm, req.Tools)
				if err != nil {
					log.Warn("%s: %v, continuing without tools", name, err)
				} else {
					cm = bound
				}
			}

			msgs := make([]*schema.Message, 0, 2)
			if req.System != "" {
				msgs = append(msgs, schema.SystemMessage(req.System))
			}
			msgs = append(msgs, schema.UserMessage(req.Prompt))

			out, err := cm.Generate(ctx, msgs)
			if err != nil {
				return entity.CompletionResponse{}, classifyVendorError(name, fmt.Errorf("generate: %w", err))
			}

			var inTok, outTok int64
			if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
				inTok = int64(out.ResponseMeta.Usage.PromptTokens)
				outTok = int64(out.ResponseMeta.Usage.CompletionTokens)
			}
			return entity.CompletionResponse{
				Text:         out.Content,
				InputTokens:  inTok,
				OutputTokens: outTok,
				Provider:     name,
				Model:        modelName,
				ToolCalls:    toolCallsFromMessage(out),
			}, nil
		},
	}
}

// CredentialsPresent reports whether the named provider's environment
// variable is set, used by the registry's auto-registration at startup.
func CredentialsPresent(envKey string) bool {
	return os.Getenv(envKey) != ""
}

// classifyVendorError tags a raw eino/vendor-SDK error with the taxonomy so
// the facade's retry loop can tell a transient failure from one that will
// never succeed on retry. The underlying SDKs surface auth/quota/malformed-
// request failures as plain errors with a status code or reason embedded in
// the message rather than a typed sentinel, so classification matches on
// that text.
func classifyVendorError(name string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "unauthorized", "invalid api key", "invalid_api_key", "authentication"):
		return apierr.Wrap(apierr.Authentication, apierr.CodeProviderAuthFailed, fmt.Errorf("%s: %w", name, err))
	case containsAny(msg, "429", "rate limit", "rate_limit", "too many requests"):
		return apierr.Wrap(apierr.RateLimit, apierr.CodeCapacityExceeded, fmt.Errorf("%s: %w", name, err))
	case containsAny(msg, "insufficient_quota", "quota exceeded", "billing", "exceeded your current quota"):
		return apierr.Wrap(apierr.BudgetExceeded, apierr.CodeProviderQuota, fmt.Errorf("%s: %w", name, err))
	case containsAny(msg, "400", "invalid_request", "invalid request", "context_length_exceeded", "context length"):
		return apierr.Wrap(apierr.Validation, apierr.CodeProviderBadRequest, fmt.Errorf("%s: %w", name, err))
	default:
		return apierr.Wrap(apierr.ExternalService, "", fmt.Errorf("%s: %w", name, err))
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// bindTools offers req's tools (typically discovered over MCP by the Gen or
// Research handler) to cm, if cm implements ToolCallingChatModel. Jarvis
// never runs the tool-call loop itself: the model may choose to respond
// with a tool call instead of text, which comes back on
// CompletionResponse.ToolCalls for the caller to act on in one bounded
// follow-up completion.
func bindTools(cm model.BaseChatModel, tools []entity.Tool) (model.BaseChatModel, error) {
	tcm, ok := cm.(model.ToolCallingChatModel)
	if !ok {
		return nil, fmt.Errorf("model does not implement ToolCallingChatModel")
	}
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		infos = append(infos, &schema.ToolInfo{
			Name:        t.Name,
			Desc:        t.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(paramsFromJSONSchema(t.Parameters)),
		})
	}
	bound, err := tcm.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}
	return bound, nil
}

// paramsFromJSONSchema reads the "properties"/"required" shape a Tool's
// Parameters carries (MCP tools describe their input this way) into the
// flat map eino's ParamsOneOf constructor expects. Unknown or missing
// shapes degrade to an empty parameter set rather than failing the bind.
func paramsFromJSONSchema(raw map[string]any) map[string]*schema.ParameterInfo {
	if raw == nil {
		return nil
	}
	props, _ := raw["properties"].(map[string]any)
	if len(props) == 0 {
		return nil
	}
	required := map[string]bool{}
	if reqList, ok := raw["required"].([]any); ok {
		for _, r := range reqList {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}
	out := make(map[string]*schema.ParameterInfo, len(props))
	for name, v := range props {
		prop, _ := v.(map[string]any)
		desc, _ := prop["description"].(string)
		typ, _ := prop["type"].(string)
		out[name] = &schema.ParameterInfo{
			Desc:     desc,
			Type:     jsonSchemaDataType(typ),
			Required: required[name],
		}
	}
	return out
}

func jsonSchemaDataType(t string) schema.DataType {
	switch t {
	case "number", "integer":
		return schema.Number
	case "boolean":
		return schema.Boolean
	case "object":
		return schema.Object
	case "array":
		return schema.Array
	default:
		return schema.String
	}
}

// toolCallsFromMessage maps the schema-level tool calls a model response
// carries into the facade's provider-agnostic ToolCall shape.
func toolCallsFromMessage(msg *schema.Message) []entity.ToolCall {
	if msg == nil || len(msg.ToolCalls) == 0 {
		return nil
	}
	out := make([]entity.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		out = append(out, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}
