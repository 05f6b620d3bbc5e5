package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	openAIResponsesURL = "https://api.openai.com/v1/responses"
	defaultOpenAIModel = "gpt-4.1-mini"
)

// OpenAI implements Provider using the OpenAI Responses API at
// temperature 0.
type OpenAI struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewOpenAI creates an OpenAI provider. An empty apiKey falls back to
// OPENAI_API_KEY, and the model to OPENAI_MODEL or gpt-4.1-mini.
func NewOpenAI(apiKey string) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		apiKey: apiKey,
		model:  model,
		url:    openAIResponsesURL,
		client: &http.Client{},
	}
}

// WithModel sets a specific model to use.
func (o *OpenAI) WithModel(model string) *OpenAI {
	if model != "" {
		o.model = model
	}
	return o
}

// WithURL points the provider at another endpoint.
func (o *OpenAI) WithURL(url string) *OpenAI {
	o.url = url
	return o
}

// Name returns the provider name.
func (o *OpenAI) Name() string {
	return "openai"
}

// Available checks if an API key is configured.
func (o *OpenAI) Available() bool {
	return o.apiKey != ""
}

// Complete sends a prompt to the Responses API.
func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	input := make([]openAIMessage, 0, 2)
	if system != "" {
		input = append(input, openAIMessage{Role: "system", Content: system})
	}
	input = append(input, openAIMessage{Role: "user", Content: prompt})

	jsonBody, err := json.Marshal(openAIRequest{Model: o.model, Temperature: 0, Input: input})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Provider: o.Name(), StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var out openAIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	return out.text(), nil
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Input       []openAIMessage `json:"input"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text prefers the aggregated output_text and otherwise joins the
// output_text parts of every output item.
func (r openAIResponse) text() string {
	if s := strings.TrimSpace(r.OutputText); s != "" {
		return s
	}
	var parts []string
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" {
				parts = append(parts, c.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
