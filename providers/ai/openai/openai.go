package openai

import (
	"net/http"
	"strings"

	"github.com/leofalp/sitesummarizer/providers/ai"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-5-mini"
)

// OpenAIProvider implements ai.StreamProvider. The API key travels with each
// request, so one provider can serve callers with different keys.
type OpenAIProvider struct {
	baseURL      string
	client       *http.Client
	defaultModel string
}

var _ ai.StreamProvider = (*OpenAIProvider)(nil)

// New returns a provider targeting the public OpenAI API with gpt-5-mini as
// the default model.
func New() *OpenAIProvider {
	return &OpenAIProvider{
		baseURL:      defaultBaseURL,
		client:       &http.Client{},
		defaultModel: defaultModel,
	}
}

// WithBaseURL points the provider at another OpenAI-compatible host. A
// trailing slash is ignored; an empty value keeps the current URL.
func (p *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	if baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
	return p
}

func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) *OpenAIProvider {
	if httpClient != nil {
		p.client = httpClient
	}
	return p
}

// WithDefaultModel sets the model used when a request leaves Model empty.
func (p *OpenAIProvider) WithDefaultModel(model string) *OpenAIProvider {
	if model != "" {
		p.defaultModel = model
	}
	return p
}

func (p *OpenAIProvider) Name() ai.ProviderName {
	return ai.ProviderOpenAI
}

func (p *OpenAIProvider) DefaultModel() string {
	return p.defaultModel
}
