package feedback

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"feedback-loop/internal/analytics"
	"feedback-loop/internal/conversation"
)

// Input is everything a Deriver may look at.
type Input struct {
	CurrentPrompt string
	Transcript    []conversation.Turn
	Detail        conversation.Detail
	// Version is the number the derived prompt will be published under.
	Version int
}

func (in Input) stats() *analytics.ConversationStats {
	d := in.Detail
	d.Transcript = in.Transcript
	return analytics.Analyze(d)
}

// Deriver produces the next system prompt from the current one and the
// last conversation. It is the customization point of the loop.
type Deriver interface {
	Derive(ctx context.Context, in Input) (string, error)
}

var (
	// A footer written by AppendFooter, including its bullet lines.
	footerBlock = regexp.MustCompile(`\[Version \d+\] - Improved based on conversation analysis:(?:\r?\n- (?:Conversation duration|User messages|Agent messages|Last conversation ID):[^\n]*)*`)
	// Any other version tag, possibly spanning lines.
	versionTag = regexp.MustCompile(`(?s)\[Version \d+.*?\]`)
)

// StripFooter removes previous provenance footers and version tags.
func StripFooter(prompt string) string {
	prompt = footerBlock.ReplaceAllString(prompt, "")
	prompt = versionTag.ReplaceAllString(prompt, "")
	return strings.TrimSpace(prompt)
}

// Footer renders the provenance block appended to every derived prompt.
func Footer(version int, stats *analytics.ConversationStats) string {
	return fmt.Sprintf("[Version %d] - Improved based on conversation analysis:\n"+
		"- Conversation duration: %s seconds\n"+
		"- User messages: %d\n"+
		"- Agent messages: %d\n"+
		"- Last conversation ID: %s",
		version, stats.Duration(), stats.UserMessages, stats.AgentMessages, stats.ConversationID)
}

func appendFooter(body string, in Input) string {
	return body + "\n\n" + Footer(in.Version, in.stats())
}

// TemplateDeriver keeps the prompt text and refreshes its footer.
type TemplateDeriver struct{}

func (TemplateDeriver) Derive(_ context.Context, in Input) (string, error) {
	return appendFooter(StripFooter(in.CurrentPrompt), in), nil
}
