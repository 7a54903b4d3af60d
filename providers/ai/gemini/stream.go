package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leofalp/sitesummarizer/internal/utils"
	"github.com/leofalp/sitesummarizer/providers/ai"
	"github.com/leofalp/sitesummarizer/providers/observability"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

// streamURL builds the endpoint URL. The key is sent both as a query
// parameter and as the x-goog-api-key header.
func (p *GeminiProvider) streamURL(model, apiKey string) string {
	return fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		p.baseURL, url.PathEscape(model), url.QueryEscape(apiKey))
}

// Stream implements ai.StreamProvider. There is no retry: any non-2xx status
// is returned as *ai.APIError.
func (p *GeminiProvider) Stream(ctx context.Context, request ai.StreamRequest, onDelta ai.DeltaFunc) error {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if request.APIKey == "" {
		return fmt.Errorf("gemini: %w", ai.ErrMissingAPIKey)
	}

	model := request.Model
	if model == "" {
		model = p.defaultModel
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, string(ai.ProviderGemini)),
			observability.String(observability.AttrLLMModel, model),
			observability.String(observability.AttrLLMEndpointType, "stream_generate_content"),
		)
	}
	if observer != nil {
		observer.Debug(ctx, "Gemini stream starting", observability.String(observability.AttrLLMModel, model))
	}

	body := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: request.Prompt}}}},
	}

	response, err := utils.DoPostStream(ctx, p.client, p.streamURL(model, request.APIKey), "", body,
		utils.HeaderOption{Key: "x-goog-api-key", Value: request.APIKey},
	)
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}

	if !utils.IsSuccess(response) {
		return ai.NewAPIError(ai.ProviderGemini, response)
	}
	if response.Body == nil || response.Body == http.NoBody {
		return fmt.Errorf("gemini: %w", ai.ErrStreamUnavailable)
	}
	defer utils.CloseWithLog(response.Body)

	return p.consume(ctx, response.Body, onDelta)
}

func (p *GeminiProvider) consume(ctx context.Context, body io.Reader, onDelta ai.DeltaFunc) error {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	deltaCount := 0
	defer func() {
		if span != nil {
			span.SetAttributes(observability.Int(observability.AttrLLMDeltaCount, deltaCount))
		}
	}()

	for payload, err := range ai.Events(ctx, body) {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}

		// keep-alives arrive as empty events
		if payload == "" || payload == utils.DoneSentinel {
			continue
		}

		text, ok := extractText(payload)
		if !ok {
			if observer != nil {
				observer.Trace(ctx, "Skipping undecodable stream event",
					observability.String(observability.AttrSSEPayload, utils.TruncateString(payload, 200)),
				)
			}
			continue
		}
		if text == "" {
			continue
		}

		deltaCount++
		if err := onDelta(text); err != nil {
			return err
		}
	}

	return nil
}

// extractText concatenates the string text fields of the first candidate's
// parts. ok is false when payload is not valid JSON.
func extractText(payload string) (text string, ok bool) {
	if !gjson.Valid(payload) {
		return "", false
	}

	parts := gjson.Get(payload, "candidates.0.content.parts")
	if !parts.IsArray() {
		return "", true
	}

	var builder strings.Builder
	parts.ForEach(func(_, value gjson.Result) bool {
		if field := value.Get("text"); field.Type == gjson.String {
			builder.WriteString(field.Str)
		}
		return true
	})
	return builder.String(), true
}
