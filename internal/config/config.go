package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret          string `envconfig:"SUPABASE_JWT_SECRET" required:"true"`

	// Stripe settings
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`

	// OpenAI settings
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL      string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	TranscriptionModel string `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`
	AnalysisModel      string `envconfig:"ANALYSIS_MODEL" default:"gpt-4o"`

	// Timeouts for out-of-process calls
	StoreTimeoutSec         int `envconfig:"STORE_TIMEOUT_SEC" default:"10"`
	TranscriptionTimeoutSec int `envconfig:"TRANSCRIPTION_TIMEOUT_SEC" default:"300"`
	AnalysisTimeoutSec      int `envconfig:"ANALYSIS_TIMEOUT_SEC" default:"120"`

	// Metrics endpoint basic auth (disabled when both are empty)
	MetricsUsername string `envconfig:"METRICS_USERNAME" default:""`
	MetricsPassword string `envconfig:"METRICS_PASSWORD" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
