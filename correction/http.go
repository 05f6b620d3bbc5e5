package correction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 20 * time.Second

// HTTPClient talks to the TypeWise correction backend.
type HTTPClient struct {
	baseURL    string
	tokenType  string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithToken authenticates requests. An empty tokenType means "Bearer".
func WithToken(tokenType, token string) HTTPOption {
	return func(c *HTTPClient) {
		if tokenType != "" {
			c.tokenType = tokenType
		}
		c.token = token
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a backend client for baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenType:  "Bearer",
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *HTTPClient) Name() string {
	return "http"
}

type correctResponse struct {
	CorrectedText    *string  `json:"corrected_text"`
	ConfidenceScore  float64  `json:"confidence_score"`
	ChangesExplained []Change `json:"changes_explained"`
	QuotaRemaining   *int     `json:"quota_remaining"`
}

// Correct sends the text to POST /correct.
func (c *HTTPClient) Correct(ctx context.Context, req Request) (*Result, error) {
	var resp correctResponse
	if err := c.do(ctx, "POST", "/correct", req, &resp); err != nil {
		return nil, err
	}
	if resp.CorrectedText == nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "response has no corrected_text"}
	}
	return &Result{
		CorrectedText:    *resp.CorrectedText,
		ConfidenceScore:  resp.ConfidenceScore,
		ChangesExplained: resp.ChangesExplained,
		QuotaRemaining:   resp.QuotaRemaining,
	}, nil
}

// Session is the token set returned by a login.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresAt    int64  `json:"expiresAt"` // Unix milliseconds
	Plan         string `json:"plan"`
}

// DevLogin obtains tokens for an email address from the development login
// endpoint. Empty org and workspace IDs use the server defaults.
func (c *HTTPClient) DevLogin(ctx context.Context, email, orgID, workspaceID string) (*Session, error) {
	if orgID == "" {
		orgID = "org_demo"
	}
	if workspaceID == "" {
		workspaceID = "ws_default"
	}
	body := map[string]string{"email": email, "orgId": orgID, "workspaceId": workspaceID}

	var s Session
	if err := c.do(ctx, "POST", "/auth/dev-login", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Profile describes the signed-in user.
type Profile struct {
	UserID         string         `json:"userId"`
	Email          string         `json:"email"`
	Plan           string         `json:"plan"`
	OrgID          string         `json:"orgId"`
	WorkspaceID    string         `json:"workspaceId"`
	QuotaRemaining *int           `json:"quotaRemaining"`
	Features       map[string]any `json:"features"`
}

// Me fetches the signed-in user's profile.
func (c *HTTPClient) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, "GET", "/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.tokenType+" "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout, Message: fmt.Sprintf("server timeout (%s)", c.timeout), Err: err}
		}
		return &Error{Kind: KindUnavailable, Message: "backend unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout, Message: fmt.Sprintf("server timeout (%s)", c.timeout), Err: err}
		}
		return &Error{Kind: KindUnavailable, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &Error{Kind: KindFromStatus(resp.StatusCode), Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindMalformedResponse, Status: resp.StatusCode, Message: "invalid JSON response", Err: err}
	}
	return nil
}
