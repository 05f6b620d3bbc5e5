package correction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"typewise/llm"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"MODE_ORTHO", ModeOrtho, true},
		{"grammar", ModeGrammar, true},
		{"rewrite-light", ModeRewriteLight, true},
		{" mode_tone ", ModeTone, true},
		{"poetry", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err == nil) != tt.ok || got != tt.want {
				t.Errorf("expected %q (ok=%v), got %q (%v)", tt.want, tt.ok, got, err)
			}
		})
	}

	if ModeClarity.Label() != "Clarity" {
		t.Errorf("expected label 'Clarity', got %q", ModeClarity.Label())
	}
}

func TestKindFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{401, KindUnauthorized},
		{402, KindQuotaExceeded},
		{429, KindQuotaExceeded},
		{408, KindTimeout},
		{500, KindServer},
		{502, KindServer},
		{400, KindBadRequest},
		{403, KindBadRequest},
	}
	for _, tt := range tests {
		if got := KindFromStatus(tt.code); got != tt.want {
			t.Errorf("%d: expected %v, got %v", tt.code, tt.want, got)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &Error{Kind: KindQuotaExceeded})
	if KindOf(wrapped) != KindQuotaExceeded {
		t.Errorf("expected quota kind through wrapping, got %v", KindOf(wrapped))
	}
	if KindOf(context.DeadlineExceeded) != KindTimeout {
		t.Error("expected deadline to count as timeout")
	}
	if KindOf(errors.New("other")) != KindUnknown {
		t.Error("expected unknown kind")
	}
}

func TestHTTPClientCorrect(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/correct" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"corrected_text":"Bonjour tout le monde","confidence_score":0.92,"changes_explained":[{"original":"tou","corrected":"tout","type":"orthographe"}],"quota_remaining":41}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", WithToken("", "tok"))
	res, err := c.Correct(context.Background(), Request{Text: "Bonjour tou le monde", Language: "fr", Mode: ModeOrtho, Hostname: "example.com"})
	if err != nil {
		t.Fatalf("correct failed: %v", err)
	}
	if res.CorrectedText != "Bonjour tout le monde" || res.ConfidenceScore != 0.92 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.ChangesExplained) != 1 || res.ChangesExplained[0].Corrected != "tout" {
		t.Errorf("unexpected changes %+v", res.ChangesExplained)
	}
	if res.QuotaRemaining == nil || *res.QuotaRemaining != 41 {
		t.Errorf("expected quota 41, got %v", res.QuotaRemaining)
	}
	if got.Mode != ModeOrtho || got.Hostname != "example.com" || got.Language != "fr" {
		t.Errorf("unexpected request body %+v", got)
	}
}

func TestHTTPClientOmitsEmptyHostname(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"corrected_text":"x","confidence_score":1,"changes_explained":[]}`))
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL).Correct(context.Background(), Request{Text: "x", Mode: ModeOrtho}); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["hostname"]; ok {
		t.Error("expected hostname to be omitted")
	}
}

func TestHTTPClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"unauthorized", 401, `{"error":"Invalid token"}`, KindUnauthorized, "Invalid token"},
		{"plan", 402, `{"error":"mode not available for current plan"}`, KindQuotaExceeded, "mode not available for current plan"},
		{"quota", 429, `{"error":"quota exceeded"}`, KindQuotaExceeded, "quota exceeded"},
		{"timeout", 408, `{"error":"openai timeout"}`, KindTimeout, "openai timeout"},
		{"server", 502, `{"error":"upstream correction failed"}`, KindServer, "upstream correction failed"},
		{"no body", 500, ``, KindServer, "HTTP 500"},
		{"bad request", 400, `{"error":"text too long (3000 max)"}`, KindBadRequest, "text too long (3000 max)"},
		{"malformed", 200, `not json`, KindMalformedResponse, "invalid JSON response"},
		{"missing text", 200, `{"confidence_score":0.5}`, KindMalformedResponse, "response has no corrected_text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL).Correct(context.Background(), Request{Text: "x", Mode: ModeOrtho})
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ce.Kind != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, ce.Kind)
			}
			if ce.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, ce.Message)
			}
		})
	}
}

func TestHTTPClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, WithTimeout(50*time.Millisecond)).Correct(context.Background(), Request{Text: "x"})
	if KindOf(err) != KindTimeout {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url).Correct(context.Background(), Request{Text: "x"})
	if KindOf(err) != KindUnavailable {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestHTTPClientDevLoginAndMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/dev-login":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != "a@b.c" || body["orgId"] != "org_demo" || body["workspaceId"] != "ws_default" {
				t.Errorf("unexpected login body %v", body)
			}
			w.Write([]byte(`{"accessToken":"acc","refreshToken":"ref","tokenType":"Bearer","expiresAt":1700000000000,"plan":"free"}`))
		case "/me":
			if r.Header.Get("Authorization") != "Bearer acc" {
				w.WriteHeader(401)
				w.Write([]byte(`{"error":"Missing bearer token"}`))
				return
			}
			w.Write([]byte(`{"userId":"u1","email":"a@b.c","plan":"free","quotaRemaining":null,"features":{"tone":false}}`))
		}
	}))
	defer srv.Close()

	s, err := NewHTTPClient(srv.URL).DevLogin(context.Background(), "a@b.c", "", "")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if s.AccessToken != "acc" || s.ExpiresAt != 1700000000000 {
		t.Errorf("unexpected session %+v", s)
	}

	if _, err := NewHTTPClient(srv.URL).Me(context.Background()); KindOf(err) != KindUnauthorized {
		t.Errorf("expected unauthorized without token, got %v", err)
	}

	p, err := NewHTTPClient(srv.URL, WithToken(s.TokenType, s.AccessToken)).Me(context.Background())
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if p.Email != "a@b.c" || p.QuotaRemaining != nil {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name       string
		mode       Mode
		text       string
		want       string
		confidence float64
	}{
		{"french typo", ModeOrtho, "sa va bien", "ça va bien", 0.78},
		{"english typo", ModeGrammar, "Teh cat", "The cat", 0.78},
		{"capitalized", ModeOrtho, "Sa va bien ?", "Ça va bien ?", 0.78},
		{"repeated word", ModeOrtho, "ca, ca", "ça, ça", 0.78},
		{"inside accented word", ModeOrtho, "un déca svp", "un déca svp", 0.95},
		{"inside word", ModeOrtho, "cacao", "cacao", 0.95},
		{"acronym", ModeOrtho, "Le CA a voté", "Le CA a voté", 0.95},
		{"all caps phrase", ModeOrtho, "SA VA", "SA VA", 0.95},
		{"after accented letter", ModeOrtho, "éca", "éca", 0.95},
		{"unchanged", ModeOrtho, "all good", "all good", 0.95},
		{"clarity collapses space", ModeClarity, "  too   many  spaces ", "too many spaces", 0.78},
		{"spaces kept outside clarity", ModeOrtho, "a  b", "a  b", 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFallback().Correct(context.Background(), Request{Text: tt.text, Mode: tt.mode})
			if err != nil {
				t.Fatal(err)
			}
			if res.CorrectedText != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.CorrectedText)
			}
			if res.ConfidenceScore != tt.confidence {
				t.Errorf("expected confidence %v, got %v", tt.confidence, res.ConfidenceScore)
			}
			if changed := len(res.ChangesExplained) > 0; changed != (tt.want != tt.text) {
				t.Errorf("unexpected changes %+v", res.ChangesExplained)
			}
		})
	}
}

// scriptedModel replies with each entry of replies in turn.
type scriptedModel struct {
	replies []reply
	calls   int
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (m *scriptedModel) Name() string    { return "scripted" }
func (m *scriptedModel) Available() bool { return true }
func (m *scriptedModel) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	r := m.replies[m.calls]
	m.calls++
	return r.text, r.err
}

const goodReply = `{"corrected_text":"Bonjour tout le monde","confidence_score":0.9,"changes_explained":[]}`

func TestLLMProviderExtractsJSONFromProse(t *testing.T) {
	model := &scriptedModel{replies: []reply{{text: "Sure! Here it is:\n" + goodReply + "\nHope that helps."}}}
	p := NewLLMProvider(llm.NewClient(model))

	res, err := p.Correct(context.Background(), Request{Text: "Bonjour tou le monde", Language: "fr", Mode: ModeOrtho})
	if err != nil {
		t.Fatalf("correct failed: %v", err)
	}
	if res.CorrectedText != "Bonjour tout le monde" || res.ConfidenceScore != 0.9 {
		t.Errorf("unexpected result %+v", res)
	}

	var prompt map[string]any
	if err := json.Unmarshal([]byte(model.prompts[0]), &prompt); err != nil {
		t.Fatalf("prompt is not JSON: %v", err)
	}
	if prompt["mode"] != "MODE_ORTHO" || prompt["text"] != "Bonjour tou le monde" || prompt["output_schema"] == nil {
		t.Errorf("unexpected prompt %v", prompt)
	}
}

func TestLLMProviderRetriesOnce(t *testing.T) {
	tests := []struct {
		name    string
		replies []reply
		calls   int
		kind    Kind
		ok      bool
	}{
		{
			name:    "server error then success",
			replies: []reply{{err: &llm.APIError{StatusCode: 503, Message: "busy"}}, {text: goodReply}},
			calls:   2,
			ok:      true,
		},
		{
			name:    "malformed twice",
			replies: []reply{{text: "no json here"}, {text: `{"corrected_text": 3}`}},
			calls:   2,
			kind:    KindMalformedResponse,
		},
		{
			name:    "unauthorized is not retried",
			replies: []reply{{err: &llm.APIError{StatusCode: 401, Message: "bad key"}}, {text: goodReply}},
			calls:   1,
			kind:    KindUnauthorized,
		},
		{
			name:    "transport error then success",
			replies: []reply{{err: errors.New("connection reset")}, {text: goodReply}},
			calls:   2,
			ok:      true,
		},
		{
			name:    "missing field",
			replies: []reply{{text: `{"corrected_text":"x","changes_explained":[]}`}, {text: `{"corrected_text":"x","confidence_score":1,"changes_explained":null}`}},
			calls:   2,
			kind:    KindMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{replies: tt.replies}
			_, err := NewLLMProvider(llm.NewClient(model)).Correct(context.Background(), Request{Text: "x", Mode: ModeOrtho})
			if model.calls != tt.calls {
				t.Errorf("expected %d calls, got %d", tt.calls, model.calls)
			}
			if tt.ok {
				if err != nil {
					t.Errorf("expected success, got %v", err)
				}
				return
			}
			if KindOf(err) != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestLLMProviderFallsBackWithoutModel(t *testing.T) {
	p := NewLLMProvider(llm.NewClient())
	res, err := p.Correct(context.Background(), Request{Text: "teh end", Mode: ModeOrtho})
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectedText != "the end" {
		t.Errorf("expected fallback correction, got %q", res.CorrectedText)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"no braces", ""},
		{"} backwards {", ""},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindServer, Status: 502, Message: "upstream failed"}
	if !strings.Contains(err.Error(), "server error (502): upstream failed") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
