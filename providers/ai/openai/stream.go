package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/leofalp/sitesummarizer/internal/utils"
	"github.com/leofalp/sitesummarizer/providers/ai"
	"github.com/leofalp/sitesummarizer/providers/observability"
)

// Stream implements ai.StreamProvider.
//
// For reasoning-family models a 429 on the first attempt triggers exactly one
// more request, identical except for the missing service tier. Any other
// non-2xx status, or a 429 after the retry, is returned as *ai.APIError.
func (p *OpenAIProvider) Stream(ctx context.Context, request ai.StreamRequest, onDelta ai.DeltaFunc) error {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if request.APIKey == "" {
		return fmt.Errorf("openai: %w", ai.ErrMissingAPIKey)
	}

	model := request.Model
	if model == "" {
		model = p.defaultModel
	}
	strategy := strategyFor(model)

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, string(ai.ProviderOpenAI)),
			observability.String(observability.AttrLLMModel, model),
			observability.String(observability.AttrLLMModelFamily, string(strategy.family)),
			observability.String(observability.AttrLLMEndpointType, strategy.endpointType),
		)
	}
	if observer != nil {
		observer.Debug(ctx, "OpenAI stream starting",
			observability.String(observability.AttrLLMModel, model),
			observability.String(observability.AttrLLMModelFamily, string(strategy.family)),
		)
	}

	response, err := p.post(ctx, strategy, model, request, true)
	if err != nil {
		return err
	}

	if !utils.IsSuccess(response) {
		apiErr := ai.NewAPIError(ai.ProviderOpenAI, response)
		if !apiErr.RateLimited() || !strategy.retryWithoutTier {
			return apiErr
		}

		if span != nil {
			span.AddEvent(observability.EventStreamRetry,
				observability.Int(observability.AttrHTTPStatusCode, apiErr.StatusCode),
				observability.String(observability.AttrLLMRetryReason, "rate limited with flex service tier"),
			)
		}
		if observer != nil {
			observer.Info(ctx, "OpenAI rate limited, retrying without service tier",
				observability.String(observability.AttrLLMModel, model),
			)
		}

		response, err = p.post(ctx, strategy, model, request, false)
		if err != nil {
			return err
		}
		if !utils.IsSuccess(response) {
			return ai.NewAPIError(ai.ProviderOpenAI, response)
		}
	}

	if response.Body == nil || response.Body == http.NoBody {
		return fmt.Errorf("openai: %w", ai.ErrStreamUnavailable)
	}
	defer utils.CloseWithLog(response.Body)

	return p.consume(ctx, strategy, response.Body, onDelta)
}

func (p *OpenAIProvider) post(ctx context.Context, strategy streamStrategy, model string, request ai.StreamRequest, withTier bool) (*http.Response, error) {
	body := strategy.buildBody(model, request.Prompt, withTier)
	response, err := utils.DoPostStream(ctx, p.client, p.baseURL+strategy.endpoint, request.APIKey, body)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return response, nil
}

// consume forwards deltas until "[DONE]" or end of stream.
func (p *OpenAIProvider) consume(ctx context.Context, strategy streamStrategy, body io.Reader, onDelta ai.DeltaFunc) error {
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
			return fmt.Errorf("openai stream: %w", err)
		}

		if payload == utils.DoneSentinel {
			if span != nil {
				span.AddEvent(observability.EventStreamDone)
			}
			return nil
		}

		delta, ok := strategy.extractDelta(payload)
		if !ok {
			if observer != nil {
				observer.Trace(ctx, "Skipping undecodable stream event",
					observability.String(observability.AttrSSEPayload, utils.TruncateString(payload, 200)),
				)
			}
			continue
		}
		if delta == "" {
			continue
		}

		deltaCount++
		if err := onDelta(delta); err != nil {
			return err
		}
	}

	return nil
}
