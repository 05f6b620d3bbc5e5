package correction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"typewise/llm"
)

const systemPrompt = "You are a professional language assistant. " +
	"Return only valid JSON in the required format. " +
	"Never add text outside the JSON."

const maxAttempts = 2

// LLMProvider asks a language model for the correction directly.
type LLMProvider struct {
	client   *llm.Client
	fallback Provider
	logger   *slog.Logger
}

// LLMOption configures an LLMProvider.
type LLMOption func(*LLMProvider)

// WithFallback sets the provider used when no model is available.
func WithFallback(p Provider) LLMOption {
	return func(l *LLMProvider) { l.fallback = p }
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(l *LLMProvider) { l.logger = logger }
}

// NewLLMProvider creates a provider backed by client.
func NewLLMProvider(client *llm.Client, opts ...LLMOption) *LLMProvider {
	p := &LLMProvider{
		client:   client,
		fallback: NewFallback(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name.
func (p *LLMProvider) Name() string {
	return "llm"
}

// Correct prompts the model, retrying once on transient failures.
func (p *LLMProvider) Correct(ctx context.Context, req Request) (*Result, error) {
	if p.client == nil || !p.client.Available() {
		p.logger.Debug("no language model available, using fallback", "fallback", p.fallback.Name())
		return p.fallback.Correct(ctx, req)
	}

	prompt, err := userPrompt(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := p.attempt(ctx, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !Retryable(err) || ctx.Err() != nil {
			break
		}
		p.logger.Warn("correction attempt failed", "attempt", attempt, "kind", KindOf(err))
	}
	return nil, lastErr
}

func (p *LLMProvider) attempt(ctx context.Context, prompt string) (*Result, error) {
	out, err := p.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, classify(err)
	}
	return parseModelOutput(out)
}

type outputSchema struct {
	CorrectedText    string         `json:"corrected_text"`
	ConfidenceScore  string         `json:"confidence_score"`
	ChangesExplained []changeSchema `json:"changes_explained"`
}

type changeSchema struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Type      string `json:"type"`
}

func userPrompt(req Request) (string, error) {
	prompt := struct {
		Instruction  string       `json:"instruction"`
		Mode         Mode         `json:"mode"`
		Language     string       `json:"language"`
		Text         string       `json:"text"`
		OutputSchema outputSchema `json:"output_schema"`
	}{
		Instruction: "Correct or rewrite according to the mode. Return only the strict JSON expected, with corrected_text, confidence_score and changes_explained.",
		Mode:        req.Mode,
		Language:    req.Language,
		Text:        req.Text,
		OutputSchema: outputSchema{
			CorrectedText:   "string",
			ConfidenceScore: "number",
			ChangesExplained: []changeSchema{{
				Original:  "string",
				Corrected: "string",
				Type:      strings.Join([]string{ChangeSpelling, ChangeGrammar, ChangeSyntax, ChangeStyle, ChangeClarity, ChangeTone}, "|"),
			}},
		},
	}
	data, err := json.Marshal(prompt)
	if err != nil {
		return "", fmt.Errorf("building prompt: %w", err)
	}
	return string(data), nil
}

// extractJSON returns the outermost {...} of a model reply, or "".
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last <= first {
		return ""
	}
	return s[first : last+1]
}

func parseModelOutput(raw string) (*Result, error) {
	candidate := extractJSON(raw)
	if candidate == "" {
		return nil, &Error{Kind: KindMalformedResponse, Status: http.StatusBadGateway, Message: "model did not return JSON"}
	}

	var shape struct {
		CorrectedText    *string   `json:"corrected_text"`
		ConfidenceScore  *float64  `json:"confidence_score"`
		ChangesExplained *[]Change `json:"changes_explained"`
	}
	if err := json.Unmarshal([]byte(candidate), &shape); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Status: http.StatusBadGateway, Message: "invalid JSON shape", Err: err}
	}
	if shape.CorrectedText == nil || shape.ConfidenceScore == nil || shape.ChangesExplained == nil {
		return nil, &Error{Kind: KindMalformedResponse, Status: http.StatusBadGateway, Message: "invalid JSON shape"}
	}

	return &Result{
		CorrectedText:    *shape.CorrectedText,
		ConfidenceScore:  *shape.ConfidenceScore,
		ChangesExplained: *shape.ChangesExplained,
	}, nil
}

func classify(err error) error {
	var apiErr *llm.APIError
	switch {
	case errors.As(err, &apiErr):
		return &Error{Kind: KindFromStatus(apiErr.StatusCode), Status: apiErr.StatusCode, Message: apiErr.Message, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout, Message: "model timeout", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnknown, Message: "canceled", Err: err}
	default:
		return &Error{Kind: KindUnavailable, Err: err}
	}
}
