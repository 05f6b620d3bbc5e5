// Package llm talks to the language models that can stand in for the
// correction backend.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoProvider means no configured model can be reached.
	ErrNoProvider = errors.New("no LLM provider available")

	// ErrSessionCollision means the Claude CLI kept rejecting fresh session IDs.
	ErrSessionCollision = errors.New("session ID collision")
)

// Provider is one model backend.
type Provider interface {
	Name() string

	// Available reports whether the provider has what it needs to run
	// (an API key, a binary on PATH).
	Available() bool

	// Complete sends prompt with an optional system message and returns
	// the reply text.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// APIError is a non-2xx answer from a provider's HTTP API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// final reports whether another provider would fail the same way: the
// caller gave up, or the request itself was rejected.
func final(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 400
}

// Client routes completions to the preferred provider, then to the other
// available ones in registration order.
type Client struct {
	providers []Provider
	preferred string
}

// NewClient creates a client over providers, in order of preference.
func NewClient(providers ...Provider) *Client {
	return &Client{providers: providers}
}

// SetPreferred puts the named provider first. It returns false, leaving
// the order unchanged, if no available provider has that name.
func (c *Client) SetPreferred(name string) bool {
	for _, p := range c.providers {
		if p.Name() == name && p.Available() {
			c.preferred = name
			return true
		}
	}
	return false
}

// candidates lists the available providers, preferred one first.
func (c *Client) candidates() []Provider {
	var out []Provider
	for _, p := range c.providers {
		if p.Name() == c.preferred && p.Available() {
			out = append(out, p)
		}
	}
	for _, p := range c.providers {
		if p.Name() != c.preferred && p.Available() {
			out = append(out, p)
		}
	}
	return out
}

// Provider returns the provider Complete tries first, or nil.
func (c *Client) Provider() Provider {
	if ps := c.candidates(); len(ps) > 0 {
		return ps[0]
	}
	return nil
}

// Available reports whether any provider can be used.
func (c *Client) Available() bool {
	return c.Provider() != nil
}

// Complete asks the first provider and fails over to the next one when a
// provider errors. If all fail, the errors are joined in the order tried.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	ps := c.candidates()
	if len(ps) == 0 {
		return "", ErrNoProvider
	}

	var errs []error
	for _, p := range ps {
		out, err := p.Complete(ctx, system, prompt)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
		if final(ctx, err) {
			break
		}
	}
	if len(errs) == 1 {
		return "", errs[0]
	}
	return "", errors.Join(errs...)
}

// ProviderInfo describes a provider's status.
type ProviderInfo struct {
	Name      string
	Available bool
	Active    bool // tried first by Complete
}

// ListProviders returns every configured provider in registration order.
func (c *Client) ListProviders() []ProviderInfo {
	active := c.Provider()
	infos := make([]ProviderInfo, 0, len(c.providers))
	for _, p := range c.providers {
		infos = append(infos, ProviderInfo{
			Name:      p.Name(),
			Available: p.Available(),
			Active:    active != nil && p.Name() == active.Name(),
		})
	}
	return infos
}
