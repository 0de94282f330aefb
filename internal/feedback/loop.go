// Package feedback turns the last finished conversation into the next
// version of the agent's system prompt.
package feedback

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"feedback-loop/internal/analytics"
	"feedback-loop/internal/conversation"
)

const (
	DefaultPrompt     = "You are a helpful assistant."
	resultDescription = "Enhanced based on conversation analysis"
	timestampLayout   = "2006-01-02T15:04:05.000Z07:00"
	initialVersion    = 1
)

// Source is the conversation platform as seen by the loop.
// MarkAnalyzed is called only once a run has produced its prompt, so a
// failed run leaves the conversation available for the next one.
type Source interface {
	WaitForLatestConversation(ctx context.Context) (*conversation.Ref, error)
	GetConversationDetails(ctx context.Context, conversationID string) (*conversation.Detail, error)
	GetCurrentAgentInfo(ctx context.Context) (*conversation.AgentConfig, error)
	MarkAnalyzed(ctx context.Context, conversationID string) error
}

// Result is the outcome of one successful run.
type Result struct {
	Version              string `json:"version"`
	Description          string `json:"description"`
	ConversationAnalyzed string `json:"conversationAnalyzed"`
	Timestamp            string `json:"timestamp"`
	FullPrompt           string `json:"fullPrompt"`
}

type Loop struct {
	source      Source
	deriver     Deriver
	versions    Versioner
	waitTimeout time.Duration
	now         func() time.Time
}

// NewLoop wires a loop. A nil versions starts a fresh counter at 1.
func NewLoop(source Source, deriver Deriver, versions Versioner) *Loop {
	if versions == nil {
		versions = NewCounter(initialVersion)
	}
	return &Loop{
		source:   source,
		deriver:  deriver,
		versions: versions,
		now:      time.Now,
	}
}

// WithWaitTimeout bounds how long Process waits for a new conversation.
func (l *Loop) WithWaitTimeout(d time.Duration) *Loop {
	l.waitTimeout = d
	return l
}

// Process runs the pipeline once. An empty currentPrompt is resolved from
// the agent configuration. On error nothing is returned and the version
// counter is left untouched.
func (l *Loop) Process(ctx context.Context, currentPrompt string) (*Result, error) {
	runID := uuid.NewString()
	res, err := l.process(ctx, runID, currentPrompt)
	if err != nil {
		log.Printf("❌ [%s] Feedback loop failed: %v", runID, err)
		return nil, err
	}
	return res, nil
}

func (l *Loop) process(ctx context.Context, runID, currentPrompt string) (*Result, error) {
	log.Printf("🔄 [%s] Starting feedback loop processing...", runID)

	ref, err := l.waitForConversation(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "wait for latest conversation", Err: err}
	}
	if ref == nil {
		return nil, ErrNotFound
	}
	log.Printf("📞 [%s] Found conversation: %s", runID, ref.ID)

	detail, err := l.source.GetConversationDetails(ctx, ref.ID)
	if err != nil {
		return nil, &UpstreamError{Op: "get conversation details", Err: err}
	}
	if detail == nil {
		detail = &conversation.Detail{}
	}
	if detail.ConversationID == "" {
		detail.ConversationID = ref.ID
	}
	if detail.Transcript == nil {
		detail.Transcript = []conversation.Turn{}
	}

	if currentPrompt == "" {
		currentPrompt, err = l.resolvePrompt(ctx)
		if err != nil {
			return nil, err
		}
	}

	stats := analytics.Analyze(*detail)
	log.Printf("🔧 [%s] Conversation analyzed - %s", runID, stats.Summary())

	improved, err := l.deriver.Derive(ctx, Input{
		CurrentPrompt: currentPrompt,
		Transcript:    detail.Transcript,
		Detail:        *detail,
		Version:       l.versions.Current() + 1,
	})
	if err != nil {
		return nil, err
	}

	if err := l.source.MarkAnalyzed(ctx, ref.ID); err != nil {
		return nil, &UpstreamError{Op: "mark conversation analyzed", Err: err}
	}
	version := l.versions.Next()
	res := &Result{
		Version:              fmt.Sprintf("%d.0", version),
		Description:          resultDescription,
		ConversationAnalyzed: ref.ID,
		Timestamp:            l.now().UTC().Format(timestampLayout),
		FullPrompt:           improved,
	}

	log.Printf("✅ [%s] Feedback loop completed successfully", runID)
	log.Printf("🔄 [%s] Generated new prompt version %s for conversation %s", runID, res.Version, ref.ID)
	log.Printf("📝 [%s] New prompt length: %d characters", runID, len(improved))
	return res, nil
}

func (l *Loop) waitForConversation(ctx context.Context) (*conversation.Ref, error) {
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}
	return l.source.WaitForLatestConversation(ctx)
}

func (l *Loop) resolvePrompt(ctx context.Context) (string, error) {
	agent, err := l.source.GetCurrentAgentInfo(ctx)
	if err != nil {
		return "", &UpstreamError{Op: "get current agent info", Err: err}
	}
	if p, ok := agent.BasePrompt(); ok {
		return p, nil
	}
	return DefaultPrompt, nil
}
