package feedback

import (
	"fmt"

	"feedback-loop/internal/config"
	"feedback-loop/internal/llm"
)

// NewDeriver picks the deriver named by cfg.Deriver.
func NewDeriver(cfg *config.Config, factory *llm.Factory) (Deriver, error) {
	switch cfg.Deriver {
	case config.DeriverTemplate, "":
		return TemplateDeriver{}, nil
	case config.DeriverModel:
		client, err := factory.CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
		if err != nil {
			return nil, fmt.Errorf("create llm client: %w", err)
		}
		return NewModelDeriver(client, cfg.CompletionTimeout), nil
	default:
		return nil, fmt.Errorf("unknown deriver: %s", cfg.Deriver)
	}
}
