package openai

import (
	"strings"

	"github.com/tidwall/gjson"
)

// modelFamily groups models that share a request shape.
type modelFamily string

const (
	familyReasoning modelFamily = "reasoning"
	familyStandard  modelFamily = "standard"
)

const (
	reasoningFamilyMarker = "gpt-5"

	responsesEndpoint       = "/responses"
	chatCompletionsEndpoint = "/chat/completions"

	reasoningEffortMinimal = "minimal"
	serviceTierFlex        = "flex"
)

// classifyModel is the only place a model name is inspected.
func classifyModel(model string) modelFamily {
	if strings.Contains(model, reasoningFamilyMarker) {
		return familyReasoning
	}
	return familyStandard
}

// responsesRequest is the /responses body. ServiceTier is dropped on the
// rate-limit retry.
type responsesRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	Stream          bool   `json:"stream"`
	ReasoningEffort string `json:"reasoning_effort"`
	ServiceTier     string `json:"service_tier,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// streamStrategy captures everything that differs between model families.
type streamStrategy struct {
	family       modelFamily
	endpoint     string
	endpointType string

	// deltaPath is the gjson path of the text fragment in one event.
	deltaPath string

	// retryWithoutTier enables the single 429 retry.
	retryWithoutTier bool

	// buildBody returns the JSON body; withTier is false on the retry.
	buildBody func(model, prompt string, withTier bool) any
}

var (
	reasoningStrategy = streamStrategy{
		family:           familyReasoning,
		endpoint:         responsesEndpoint,
		endpointType:     "responses",
		deltaPath:        "delta",
		retryWithoutTier: true,
		buildBody: func(model, prompt string, withTier bool) any {
			body := responsesRequest{
				Model:           model,
				Input:           prompt,
				Stream:          true,
				ReasoningEffort: reasoningEffortMinimal,
			}
			if withTier {
				body.ServiceTier = serviceTierFlex
			}
			return body
		},
	}

	standardStrategy = streamStrategy{
		family:       familyStandard,
		endpoint:     chatCompletionsEndpoint,
		endpointType: "chat_completions",
		deltaPath:    "choices.0.delta.content",
		buildBody: func(model, prompt string, _ bool) any {
			return chatCompletionRequest{
				Model:    model,
				Messages: []chatMessage{{Role: "user", Content: prompt}},
				Stream:   true,
			}
		},
	}
)

func strategyFor(model string) streamStrategy {
	if classifyModel(model) == familyReasoning {
		return reasoningStrategy
	}
	return standardStrategy
}

// extractDelta returns the text fragment of one event payload. ok is false
// when the payload is not valid JSON. A missing or non-string field yields
// "" with ok true.
func (s streamStrategy) extractDelta(payload string) (delta string, ok bool) {
	if !gjson.Valid(payload) {
		return "", false
	}
	result := gjson.Get(payload, s.deltaPath)
	if result.Type != gjson.String {
		return "", true
	}
	return result.Str, true
}
