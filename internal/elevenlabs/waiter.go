package elevenlabs

import (
	"context"
	"fmt"
	"log"
	"time"

	"feedback-loop/internal/conversation"
	"feedback-loop/internal/cursor"
)

type Lister interface {
	ListConversations(ctx context.Context, pageSize int) ([]conversation.Ref, error)
}

// Waiter polls for the newest finished conversation that has not been
// analyzed yet. The last analyzed ID lives in a cursor repository and only
// moves when MarkAnalyzed is called.
type Waiter struct {
	lister   Lister
	cursor   cursor.Repository
	interval time.Duration
	attempts int
	now      func() time.Time
}

// NewWaiter builds a Waiter. attempts == 0 polls until ctx is done.
func NewWaiter(lister Lister, repo cursor.Repository, interval time.Duration, attempts int) *Waiter {
	if repo == nil {
		repo = &cursor.MemoryRepository{}
	}
	return &Waiter{
		lister:   lister,
		cursor:   repo,
		interval: interval,
		attempts: attempts,
		now:      time.Now,
	}
}

// WaitForLatestConversation returns nil, nil when no new conversation shows
// up within the configured attempts. It does not move the cursor, so the
// same conversation is returned until it is marked analyzed.
func (w *Waiter) WaitForLatestConversation(ctx context.Context) (*conversation.Ref, error) {
	st, err := w.cursor.Load()
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}

	for attempt := 1; w.attempts == 0 || attempt <= w.attempts; attempt++ {
		refs, err := w.lister.ListConversations(ctx, 1)
		if err != nil {
			return nil, err
		}
		if len(refs) > 0 {
			latest := refs[0]
			if latest.ID != "" && latest.ID != st.ConversationID {
				if latest.Status == "" || latest.Status == conversation.StatusDone {
					return &latest, nil
				}
				log.Printf("⏳ Conversation %s is %s, waiting", latest.ID, latest.Status)
			}
		}

		if w.attempts != 0 && attempt == w.attempts {
			break
		}
		timer := time.NewTimer(w.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, nil
}

// MarkAnalyzed records conversationID as the last analyzed conversation.
func (w *Waiter) MarkAnalyzed(_ context.Context, conversationID string) error {
	if err := w.cursor.Save(cursor.State{ConversationID: conversationID, SeenAt: w.now().UTC()}); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// Platform joins the API client and the waiter into the conversation
// source the feedback loop consumes.
type Platform struct {
	*Client
	*Waiter
}

func NewPlatform(client *Client, waiter *Waiter) *Platform {
	return &Platform{Client: client, Waiter: waiter}
}
