package gemini

import (
	"net/http"
	"strings"

	"github.com/leofalp/sitesummarizer/providers/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
)

// GeminiProvider implements ai.StreamProvider for the Gemini API.
type GeminiProvider struct {
	baseURL      string
	client       *http.Client
	defaultModel string
}

var _ ai.StreamProvider = (*GeminiProvider)(nil)

func New() *GeminiProvider {
	return &GeminiProvider{
		baseURL:      defaultBaseURL,
		client:       &http.Client{},
		defaultModel: defaultModel,
	}
}

// WithBaseURL sets the API root (the part before "/models"). An empty value
// keeps the current URL.
func (p *GeminiProvider) WithBaseURL(baseURL string) *GeminiProvider {
	if baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
	return p
}

func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) *GeminiProvider {
	if httpClient != nil {
		p.client = httpClient
	}
	return p
}

func (p *GeminiProvider) WithDefaultModel(model string) *GeminiProvider {
	if model != "" {
		p.defaultModel = model
	}
	return p
}

func (p *GeminiProvider) Name() ai.ProviderName {
	return ai.ProviderGemini
}

func (p *GeminiProvider) DefaultModel() string {
	return p.defaultModel
}
