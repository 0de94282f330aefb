// Package elevenlabs is a small client for the ElevenLabs conversational
// AI API: listing conversations, fetching transcripts and reading or
// updating the agent prompt.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedback-loop/internal/conversation"
)

const DefaultBaseURL = "https://api.elevenlabs.io"

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	agentID string
	http    *http.Client
}

func NewClient(baseURL, apiKey, agentID string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		agentID: agentID,
		http:    httpClient,
	}
}

type listResponse struct {
	Conversations []conversation.Ref `json:"conversations"`
}

// ListConversations returns the agent's most recent conversations, newest first.
func (c *Client) ListConversations(ctx context.Context, pageSize int) ([]conversation.Ref, error) {
	q := url.Values{}
	q.Set("agent_id", c.agentID)
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/v1/convai/conversations", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

func (c *Client) GetConversationDetails(ctx context.Context, conversationID string) (*conversation.Detail, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversation id is empty")
	}
	var d conversation.Detail
	if err := c.do(ctx, http.MethodGet, "/v1/convai/conversations/"+url.PathEscape(conversationID), nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetCurrentAgentInfo(ctx context.Context) (*conversation.AgentConfig, error) {
	var a conversation.AgentConfig
	if err := c.do(ctx, http.MethodGet, "/v1/convai/agents/"+url.PathEscape(c.agentID), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAgentPrompt replaces the agent's system prompt.
func (c *Client) UpdateAgentPrompt(ctx context.Context, prompt string) error {
	body := conversation.AgentConfig{
		ConversationConfig: &conversation.ConversationConfig{
			Agent: &conversation.AgentSettings{
				Prompt: &conversation.PromptConfig{Prompt: prompt},
			},
		},
	}
	return c.do(ctx, http.MethodPatch, "/v1/convai/agents/"+url.PathEscape(c.agentID), nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
