package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Morwran/yagpt"
)

// YandexClient talks to YandexGPT. The yagpt completion call takes no
// sampling parameters, so the model's server-side defaults apply.
type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	// Create YaGPT client for a folder
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

// Generate folds the conversation into a system prompt and a single user
// prompt, which is the shape GenerateText sends.
func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	var system, user []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		user = append(user, m.Content)
	}
	return c.GenerateText(ctx, strings.Join(system, "\n\n"), strings.Join(user, "\n\n"))
}

func (c *YandexClient) GenerateText(ctx context.Context, systemPrompt string, prompt string) (Response, error) {
	var messages []yagpt.Message
	if systemPrompt != "" {
		messages = append(messages, yagpt.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, yagpt.Message{Role: "user", Content: prompt})

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, messages)
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, ErrEmptyResponse
	}
	out := Response{Content: resp.Alternatives[0].Message.Content, Model: yagpt.YaModelLite}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)
	return out, nil
}
