package feedback

import (
	"context"
	"log"
	"sync"
)

// PromptApplier pushes a derived prompt back to the agent.
type PromptApplier interface {
	UpdateAgentPrompt(ctx context.Context, prompt string) error
}

// Runner serializes loop runs for a host and carries each run's prompt
// into the next one.
type Runner struct {
	loop    *Loop
	applier PromptApplier

	mu     sync.Mutex
	prompt string
	last   *Result
}

// NewRunner seeds the carried prompt with initialPrompt; an empty seed
// lets the first run read the prompt from the agent. A nil applier keeps
// results local. Applying is best-effort: a failed update is logged and
// the result still becomes the carried prompt.
func NewRunner(loop *Loop, initialPrompt string, applier PromptApplier) *Runner {
	return &Runner{loop: loop, prompt: initialPrompt, applier: applier}
}

// Run executes one loop. A non-empty override replaces the carried prompt.
func (r *Runner) Run(ctx context.Context, override string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prompt := r.prompt
	if override != "" {
		prompt = override
	}
	res, err := r.loop.Process(ctx, prompt)
	if err != nil {
		return nil, err
	}
	r.prompt = res.FullPrompt
	r.last = res

	if r.applier != nil {
		if err := r.applier.UpdateAgentPrompt(ctx, res.FullPrompt); err != nil {
			log.Printf("⚠️ Failed to apply prompt version %s to agent: %v", res.Version, err)
		} else {
			log.Printf("📤 Applied prompt version %s to agent", res.Version)
		}
	}
	return res, nil
}

// Last returns the most recent successful result, or nil.
func (r *Runner) Last() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
