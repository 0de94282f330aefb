package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedback-loop/internal/conversation"
	"feedback-loop/internal/llm"
)

// ModelDeriver asks a language model to rewrite the prompt.
type ModelDeriver struct {
	client  llm.Client
	timeout time.Duration
}

// NewModelDeriver wraps client. A zero timeout leaves the deadline to ctx.
func NewModelDeriver(client llm.Client, timeout time.Duration) *ModelDeriver {
	return &ModelDeriver{client: client, timeout: timeout}
}

// RenderTranscript flattens turns into "User: ..." / "Agent: ..." lines.
func RenderTranscript(turns []conversation.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := "Agent"
		if t.Role == conversation.RoleUser {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+t.Message)
	}
	return strings.Join(lines, "\n")
}

func (d *ModelDeriver) Derive(ctx context.Context, in Input) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: analysisSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(analysisUserTemplate, in.CurrentPrompt, in.stats().Summary(), RenderTranscript(in.Transcript))},
	}

	resp, err := d.client.Generate(ctx, messages)
	if err != nil {
		return "", &CompletionError{Reason: "request failed", Err: err}
	}
	body := strings.TrimSpace(resp.Content)
	if body == "" {
		return "", &CompletionError{Reason: "empty completion"}
	}
	return appendFooter(body, in), nil
}
