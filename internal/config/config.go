package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// DeriverKind selects how the next prompt is produced.
type DeriverKind string

const (
	DeriverTemplate DeriverKind = "template"
	DeriverModel    DeriverKind = "model"
)

type Mode string

const (
	ModeOnce     Mode = "once"
	ModeSchedule Mode = "schedule"
	ModeWebhook  Mode = "webhook"
)

type Config struct {
	// ElevenLabs conversational AI
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY,required,notEmpty"`
	ElevenLabsAgentID string `env:"ELEVENLABS_AGENT_ID,required,notEmpty"`
	ElevenLabsBaseURL string `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`
	ApplyPrompt       bool   `env:"APPLY_PROMPT" envDefault:"false"`

	// Waiting for the next conversation
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	PollAttempts   int           `env:"POLL_ATTEMPTS" envDefault:"60"`
	WaitTimeout    time.Duration `env:"WAIT_TIMEOUT" envDefault:"10m"`
	CursorFilePath string        `env:"CURSOR_FILE_PATH" envDefault:"data/cursor.json"`

	// Prompt derivation
	Deriver           DeriverKind `env:"DERIVER" envDefault:"template"`
	InitialPromptPath string      `env:"INITIAL_PROMPT_PATH"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Temperature and max tokens apply to LLM_PROVIDER=openai only; the
	// yagpt client sends no sampling parameters, so YandexGPT ignores them.
	CompletionTemperature float32       `env:"COMPLETION_TEMPERATURE" envDefault:"0.7"`
	CompletionMaxTokens   int           `env:"COMPLETION_MAX_TOKENS" envDefault:"1000"`
	CompletionTimeout     time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"60s"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Host
	Mode        Mode   `env:"MODE" envDefault:"once"`
	Schedule    string `env:"SCHEDULE" envDefault:"*/5 * * * *"`
	WebhookAddr string `env:"WEBHOOK_ADDR" envDefault:":8080"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the environment and validates the result.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that would only fail later, such as the
// model deriver without a credential for its provider.
func (c *Config) Validate() error {
	switch c.Deriver {
	case DeriverTemplate:
	case DeriverModel:
		switch c.LLMProvider {
		case ProviderOpenAI:
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required when DERIVER=%s", DeriverModel)
			}
		case ProviderYandex:
			if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
				return fmt.Errorf("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required when DERIVER=%s", DeriverModel)
			}
		default:
			return fmt.Errorf("unknown llm provider: %s", c.LLMProvider)
		}
	default:
		return fmt.Errorf("unknown deriver: %s", c.Deriver)
	}

	switch c.Mode {
	case ModeOnce, ModeSchedule, ModeWebhook:
	default:
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.PollAttempts < 0 {
		return fmt.Errorf("POLL_ATTEMPTS must not be negative")
	}
	return nil
}
