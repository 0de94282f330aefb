package analytics

import (
	"fmt"
	"strconv"

	"feedback-loop/internal/conversation"
)

// ConversationStats summarises one transcript.
type ConversationStats struct {
	ConversationID string  `json:"conversation_id"`
	TotalTurns     int     `json:"total_turns"`
	UserMessages   int     `json:"user_messages"`
	AgentMessages  int     `json:"agent_messages"`
	DurationSecs   float64 `json:"duration_secs"`
}

// Partition splits a transcript into user and agent turns by exact role
// match, preserving order. Turns with any other role land in neither slice.
func Partition(transcript []conversation.Turn) (user, agent []conversation.Turn) {
	for _, t := range transcript {
		switch t.Role {
		case conversation.RoleUser:
			user = append(user, t)
		case conversation.RoleAgent:
			agent = append(agent, t)
		}
	}
	return user, agent
}

// Analyze counts the turns of a conversation.
func Analyze(detail conversation.Detail) *ConversationStats {
	user, agent := Partition(detail.Transcript)
	return &ConversationStats{
		ConversationID: detail.ConversationID,
		TotalTurns:     len(detail.Transcript),
		UserMessages:   len(user),
		AgentMessages:  len(agent),
		DurationSecs:   detail.Metadata.DurationSecs(),
	}
}

// Duration renders the call duration without a trailing ".0" for whole seconds.
func (s *ConversationStats) Duration() string {
	return strconv.FormatFloat(s.DurationSecs, 'f', -1, 64)
}

// Summary is a one-line description used in logs and analysis requests.
func (s *ConversationStats) Summary() string {
	return fmt.Sprintf("%d messages, %d user, %d agent, %s seconds",
		s.TotalTurns, s.UserMessages, s.AgentMessages, s.Duration())
}
