package llm

import (
	"net/http"
	"time"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=llm_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// Client is a client for an OpenAI-compatible chat completion API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// model is the chat model requested on every call.
	model string
	// apiKey authenticates requests; an empty key makes every call fail
	// locally with ErrUnauthorized before touching the network.
	apiKey string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// timeout bounds each call unless the caller's context is tighter.
	timeout time.Duration
}

// Option is a configuration option for the chat client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API. Empty keeps the default.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithModel sets the chat model. Empty keeps the default.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a new chat completion client.
func NewClient(key string, options ...Option) (*Client, error) {
	var client = &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		apiKey:     key,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		timeout:    defaultTimeout,
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}
