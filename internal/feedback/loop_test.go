package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"feedback-loop/internal/conversation"
)

type fakeSource struct {
	ref      *conversation.Ref
	waitErr  error
	detail   *conversation.Detail
	detErr   error
	agent    *conversation.AgentConfig
	agentErr error

	markErr    error
	marked     []string
	agentCalls int
	block      bool
}

func (f *fakeSource) WaitForLatestConversation(ctx context.Context) (*conversation.Ref, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.ref, f.waitErr
}

func (f *fakeSource) GetConversationDetails(ctx context.Context, id string) (*conversation.Detail, error) {
	return f.detail, f.detErr
}

func (f *fakeSource) MarkAnalyzed(ctx context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeSource) GetCurrentAgentInfo(ctx context.Context) (*conversation.AgentConfig, error) {
	f.agentCalls++
	return f.agent, f.agentErr
}

type failingDeriver struct{ err error }

func (d failingDeriver) Derive(context.Context, Input) (string, error) { return "", d.err }

func agentWithPrompt(p string) *conversation.AgentConfig {
	return &conversation.AgentConfig{ConversationConfig: &conversation.ConversationConfig{
		Agent: &conversation.AgentSettings{Prompt: &conversation.PromptConfig{Prompt: p}},
	}}
}

func scenarioSource() *fakeSource {
	return &fakeSource{
		ref: &conversation.Ref{ID: "abc123"},
		detail: &conversation.Detail{
			ConversationID: "abc123",
			Transcript: []conversation.Turn{
				{Role: "user", Message: "hi"},
				{Role: "agent", Message: "hello"},
			},
		},
	}
}

func TestProcess_Scenario(t *testing.T) {
	src := scenarioSource()
	counter := NewCounter(1)
	l := NewLoop(src, TemplateDeriver{}, counter)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }

	res, err := l.Process(context.Background(), "You are nice.")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	for _, want := range []string{"You are nice.", "User messages: 1", "Agent messages: 1", "Last conversation ID: abc123", "[Version 2]", "Conversation duration: 0 seconds"} {
		if !strings.Contains(res.FullPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, res.FullPrompt)
		}
	}
	if strings.Count(res.FullPrompt, "[Version") != 1 {
		t.Errorf("want exactly one version tag:\n%s", res.FullPrompt)
	}
	if res.Version != "2.0" {
		t.Errorf("want version 2.0, got %s", res.Version)
	}
	if res.ConversationAnalyzed != "abc123" {
		t.Errorf("unexpected conversation: %s", res.ConversationAnalyzed)
	}
	if res.Description != "Enhanced based on conversation analysis" {
		t.Errorf("unexpected description: %s", res.Description)
	}
	if res.Timestamp != "2024-05-01T11:00:00.000Z" {
		t.Errorf("unexpected timestamp: %s", res.Timestamp)
	}
	if counter.Current() != 2 {
		t.Errorf("counter want 2, got %d", counter.Current())
	}
	if src.agentCalls != 0 {
		t.Errorf("agent info must not be fetched when a prompt is supplied")
	}
	if len(src.marked) != 1 || src.marked[0] != "abc123" {
		t.Errorf("conversation not marked analyzed: %v", src.marked)
	}
}

func TestProcess_VersionsAdvancePerRun(t *testing.T) {
	src := scenarioSource()
	counter := NewCounter(1)
	l := NewLoop(src, TemplateDeriver{}, counter)

	first, err := l.Process(context.Background(), "Base.")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := l.Process(context.Background(), first.FullPrompt)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Version != "2.0" || second.Version != "3.0" {
		t.Fatalf("unexpected versions %s, %s", first.Version, second.Version)
	}
	if !strings.Contains(second.FullPrompt, "[Version 3]") || strings.Contains(second.FullPrompt, "[Version 2]") {
		t.Fatalf("stale footer carried over:\n%s", second.FullPrompt)
	}
	if strings.Count(second.FullPrompt, "User messages:") != 1 {
		t.Fatalf("footer duplicated:\n%s", second.FullPrompt)
	}
}

func TestProcess_ResolvesPromptFromAgent(t *testing.T) {
	src := scenarioSource()
	src.agent = agentWithPrompt("Be terse.")
	l := NewLoop(src, TemplateDeriver{}, nil)

	res, err := l.Process(context.Background(), "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.HasPrefix(res.FullPrompt, "Be terse.\n\n[Version 2]") {
		t.Fatalf("unexpected prompt:\n%s", res.FullPrompt)
	}
	if src.agentCalls != 1 {
		t.Fatalf("want one agent lookup, got %d", src.agentCalls)
	}
}

func TestProcess_DefaultPromptWhenAgentHasNone(t *testing.T) {
	src := scenarioSource()
	src.agent = &conversation.AgentConfig{AgentID: "a"}
	l := NewLoop(src, TemplateDeriver{}, nil)

	res, err := l.Process(context.Background(), "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.HasPrefix(res.FullPrompt, "You are a helpful assistant.\n\n") {
		t.Fatalf("unexpected prompt:\n%s", res.FullPrompt)
	}
}

func TestProcess_NoConversation(t *testing.T) {
	src := &fakeSource{}
	counter := NewCounter(1)
	l := NewLoop(src, TemplateDeriver{}, counter)

	res, err := l.Process(context.Background(), "x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if res != nil {
		t.Fatalf("no partial result expected")
	}
	if !strings.Contains(err.Error(), "no conversation found") {
		t.Fatalf("unexpected message: %v", err)
	}
	if counter.Current() != 1 {
		t.Fatalf("counter changed: %d", counter.Current())
	}
}

func TestProcess_UpstreamFailures(t *testing.T) {
	boom := errors.New("boom")
	cases := map[string]*fakeSource{
		"wait":   {waitErr: boom},
		"detail": {ref: &conversation.Ref{ID: "c"}, detErr: boom},
		"agent":  {ref: &conversation.Ref{ID: "c"}, detail: &conversation.Detail{}, agentErr: boom},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			counter := NewCounter(1)
			l := NewLoop(src, TemplateDeriver{}, counter)
			_, err := l.Process(context.Background(), "")
			var up *UpstreamError
			if !errors.As(err, &up) {
				t.Fatalf("want *UpstreamError, got %v", err)
			}
			if !errors.Is(err, boom) {
				t.Fatalf("original error lost: %v", err)
			}
			if counter.Current() != 1 {
				t.Fatalf("counter changed: %d", counter.Current())
			}
		})
	}
}

func TestProcess_DeriverFailureLeavesCounter(t *testing.T) {
	cerr := &CompletionError{Reason: "empty completion"}
	counter := NewCounter(1)
	l := NewLoop(scenarioSource(), failingDeriver{err: cerr}, counter)

	_, err := l.Process(context.Background(), "x")
	if err != cerr {
		t.Fatalf("want deriver error unchanged, got %v", err)
	}
	if counter.Current() != 1 {
		t.Fatalf("counter changed: %d", counter.Current())
	}
}

func TestProcess_MarkFailureLeavesCounter(t *testing.T) {
	boom := errors.New("disk full")
	src := scenarioSource()
	src.markErr = boom
	counter := NewCounter(1)
	l := NewLoop(src, TemplateDeriver{}, counter)

	_, err := l.Process(context.Background(), "x")
	var up *UpstreamError
	if !errors.As(err, &up) || !errors.Is(err, boom) {
		t.Fatalf("want upstream error wrapping cause, got %v", err)
	}
	if counter.Current() != 1 {
		t.Fatalf("counter changed: %d", counter.Current())
	}
}

func TestProcess_FailedRunsDoNotMarkConversation(t *testing.T) {
	src := scenarioSource()
	l := NewLoop(src, failingDeriver{err: &CompletionError{Reason: "transient"}}, nil)
	if _, err := l.Process(context.Background(), "x"); err == nil {
		t.Fatalf("expected error")
	}
	if len(src.marked) != 0 {
		t.Fatalf("failed run marked conversation: %v", src.marked)
	}
}

func TestProcess_MissingTranscriptAndID(t *testing.T) {
	src := &fakeSource{ref: &conversation.Ref{ID: "from-ref"}, detail: &conversation.Detail{}}
	l := NewLoop(src, TemplateDeriver{}, nil)

	res, err := l.Process(context.Background(), "P")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	for _, want := range []string{"User messages: 0", "Agent messages: 0", "Last conversation ID: from-ref"} {
		if !strings.Contains(res.FullPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestProcess_WaitTimeout(t *testing.T) {
	src := &fakeSource{block: true}
	l := NewLoop(src, TemplateDeriver{}, nil).WithWaitTimeout(20 * time.Millisecond)

	_, err := l.Process(context.Background(), "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}
