// Package conversation holds the records exchanged with the
// conversational AI platform: conversation handles, transcripts and the
// agent configuration that carries the live system prompt.
package conversation

import "encoding/json"

const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// StatusDone marks a conversation whose transcript is final.
const StatusDone = "done"

// Ref is the handle returned by conversation listing.
type Ref struct {
	ID        string `json:"conversation_id"`
	AgentID   string `json:"agent_id"`
	Status    string `json:"status"`
	StartTime int64  `json:"start_time_unix_secs"`
}

// Turn is a single transcript entry. Turns are kept in chronological order.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type Metadata struct {
	StartTime        int64    `json:"start_time_unix_secs,omitempty"`
	CallDurationSecs *float64 `json:"call_duration_secs,omitempty"`
}

// DurationSecs returns the call duration, or 0 when the platform did not report one.
func (m Metadata) DurationSecs() float64 {
	if m.CallDurationSecs == nil {
		return 0
	}
	return *m.CallDurationSecs
}

// Detail is the full conversation record fetched once per feedback run.
type Detail struct {
	ConversationID string   `json:"conversation_id"`
	AgentID        string   `json:"agent_id"`
	Status         string   `json:"status"`
	Transcript     []Turn   `json:"transcript"`
	Metadata       Metadata `json:"metadata"`
}

// UnmarshalJSON keeps Transcript non-nil even when the field is absent or null.
func (d *Detail) UnmarshalJSON(data []byte) error {
	type alias Detail
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Transcript == nil {
		a.Transcript = []Turn{}
	}
	*d = Detail(a)
	return nil
}

type PromptConfig struct {
	Prompt string `json:"prompt"`
}

type AgentSettings struct {
	Prompt *PromptConfig `json:"prompt,omitempty"`
}

type ConversationConfig struct {
	Agent *AgentSettings `json:"agent,omitempty"`
}

// AgentConfig is the subset of the agent resource the feedback loop reads.
type AgentConfig struct {
	AgentID            string              `json:"agent_id"`
	Name               string              `json:"name"`
	ConversationConfig *ConversationConfig `json:"conversation_config,omitempty"`
}

// BasePrompt returns conversation_config.agent.prompt.prompt. The bool is
// false when any part of that path is missing or the prompt is empty.
func (a *AgentConfig) BasePrompt() (string, bool) {
	if a == nil || a.ConversationConfig == nil || a.ConversationConfig.Agent == nil ||
		a.ConversationConfig.Agent.Prompt == nil || a.ConversationConfig.Agent.Prompt.Prompt == "" {
		return "", false
	}
	return a.ConversationConfig.Agent.Prompt.Prompt, true
}
