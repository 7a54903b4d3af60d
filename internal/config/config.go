package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment; a .env file in the working directory
// is loaded first by the binary.
type Config struct {
	ListenAddr string `env:"SUMMARIZER_LISTEN_ADDR" envDefault:"127.0.0.1:8787"`
	DBPath     string `env:"SUMMARIZER_DB_PATH"     envDefault:"summarizer.sqlite"`

	LogFormat string `env:"SUMMARIZER_LOG_FORMAT" envDefault:"compact"`
	LogLevel  string `env:"SUMMARIZER_LOG_LEVEL"  envDefault:"info"`

	OpenAIBaseURL string `env:"OPENAI_API_BASE_URL"`
	GeminiBaseURL string `env:"GEMINI_API_BASE_URL"`
	ProvidersFile string `env:"SUMMARIZER_PROVIDERS_FILE"`

	SessionTTL   time.Duration `env:"SUMMARIZER_SESSION_TTL"   envDefault:"24h"`
	EvictionSpec string        `env:"SUMMARIZER_EVICTION_SPEC" envDefault:"@every 10m"`
	FetchTimeout time.Duration `env:"SUMMARIZER_FETCH_TIMEOUT" envDefault:"20s"`

	// KeyPassphrase seals stored API keys. Empty selects the compiled-in
	// default.
	KeyPassphrase string `env:"SUMMARIZER_KEY_PASSPHRASE"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Providers returns the per-provider defaults with the environment's base URL
// overrides applied.
func (c Config) Providers() (map[string]ProviderDefaults, error) {
	defs, err := LoadProviderDefaults(c.ProvidersFile)
	if err != nil {
		return nil, err
	}

	overrides := map[string]string{
		"openai": c.OpenAIBaseURL,
		"gemini": c.GeminiBaseURL,
	}
	for name, baseURL := range overrides {
		if baseURL == "" {
			continue
		}
		d := defs[name]
		d.BaseURL = baseURL
		defs[name] = d
	}
	return defs, nil
}
