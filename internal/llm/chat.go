package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"marketadvisor/internal/market"
)

// SystemPrompt frames multi-turn chat conversations. Prepended by the chat
// handler when the caller supplied no system message.
const SystemPrompt = "You are an investment research assistant. Be helpful, concise, and neutral. " +
	"You can discuss crypto, stocks, ETFs, forex and macro news. " +
	"Use disclaimers: you are not giving financial advice. " +
	"If something is unknown, say so."

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat sends the conversation and returns the assistant reply. Calls are
// never retried; the model may have side costs and idempotence is not
// guaranteed.
func (c *Client) Chat(ctx context.Context, msgs []Message) (string, error) {
	if c.apiKey == "" {
		return "", market.ErrUnauthorized
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: msgs})
	if err != nil {
		return "", errors.Wrap(err, "llm: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "llm: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", errors.Wrap(market.ErrTimeout, err.Error())
		}
		return "", &market.ProviderUnavailableError{Provider: "llm", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 2<<10))
		return "", &market.UpstreamError{Provider: "llm", Status: resp.StatusCode}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(market.ErrMalformedResponse, err.Error())
	}
	if len(out.Choices) == 0 {
		return "", errors.Wrap(market.ErrMalformedResponse, "no choices in response")
	}
	reply := strings.TrimSpace(out.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.Wrap(market.ErrMalformedResponse, "empty completion text")
	}
	return reply, nil
}

// Summarize sends a single-turn prompt and returns plain text.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{{Role: "user", Content: prompt}})
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
