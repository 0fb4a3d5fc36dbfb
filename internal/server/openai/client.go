// Package openai implements a minimal chat-completions client for the
// rewrite provider. The advisor service only needs one call: send
// instructions plus the draft text, get back the rewritten text and the
// token count the provider billed.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mailadvisor/backend/internal/common"
)

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// NewClient constructs a provider client. A missing API key is a fatal
// configuration error.
func NewClient(baseURL, apiKey, model string, httpc *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: rewrite provider API key is not set", common.ErrorConfiguration)
	}
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, model: model, httpc: httpc}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends instructions and input to the provider and returns the
// generated text along with the total tokens the call consumed.
func (c *Client) Complete(ctx context.Context, instructions, input string) (string, int64, error) {
	payload := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: instructions},
			{Role: "user", Content: input},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("provider unreachable: %w", err)
	}
	defer res.Body.Close()

	var decoded completionResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return "", 0, fmt.Errorf("malformed provider response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if decoded.Error != nil {
			return "", 0, fmt.Errorf("provider error: %s", decoded.Error.Message)
		}
		return "", 0, fmt.Errorf("provider error: %s", res.Status)
	}

	if len(decoded.Choices) == 0 {
		return "", 0, errors.New("provider returned no choices")
	}

	return decoded.Choices[0].Message.Content, decoded.Usage.TotalTokens, nil
}
