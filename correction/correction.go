// Package correction defines the boundary to correction providers and the
// providers themselves: the TypeWise backend over HTTP, a language model
// called directly, and an offline rule-based fallback.
package correction

import (
	"context"
	"fmt"
	"strings"
)

// Mode selects what kind of correction to perform.
type Mode string

const (
	ModeOrtho        Mode = "MODE_ORTHO"
	ModeGrammar      Mode = "MODE_GRAMMAR"
	ModeRewriteLight Mode = "MODE_REWRITE_LIGHT"
	ModeRewritePro   Mode = "MODE_REWRITE_PRO"
	ModeClarity      Mode = "MODE_CLARITY"
	ModeTone         Mode = "MODE_TONE"
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModeOrtho, ModeGrammar, ModeRewriteLight, ModeRewritePro, ModeClarity, ModeTone}

var modeLabels = map[Mode]string{
	ModeOrtho:        "Spelling",
	ModeGrammar:      "Grammar",
	ModeRewriteLight: "Light rewrite",
	ModeRewritePro:   "Professional rewrite",
	ModeClarity:      "Clarity",
	ModeTone:         "Tone (premium)",
}

// Label returns the display name of the mode.
func (m Mode) Label() string {
	if l, ok := modeLabels[m]; ok {
		return l
	}
	return string(m)
}

// ParseMode accepts a mode constant ("MODE_GRAMMAR") or its short form
// ("grammar", "rewrite-light"), case-insensitively.
func ParseMode(s string) (Mode, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if !strings.HasPrefix(norm, "MODE_") {
		norm = "MODE_" + norm
	}
	for _, m := range Modes {
		if string(m) == norm {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Change types reported in Change.Type.
const (
	ChangeSpelling = "orthographe"
	ChangeGrammar  = "grammaire"
	ChangeSyntax   = "syntaxe"
	ChangeStyle    = "style"
	ChangeClarity  = "clarte"
	ChangeTone     = "ton"
)

// Request is one text to correct.
type Request struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Mode     Mode   `json:"mode"`
	Hostname string `json:"hostname,omitempty"`
}

// Change explains one edit made by the provider.
type Change struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Type      string `json:"type"`
}

// Result is a provider's answer.
type Result struct {
	CorrectedText    string   `json:"corrected_text"`
	ConfidenceScore  float64  `json:"confidence_score"`
	ChangesExplained []Change `json:"changes_explained"`
	QuotaRemaining   *int     `json:"quota_remaining,omitempty"`
}

// Provider corrects text.
type Provider interface {
	Name() string
	Correct(ctx context.Context, req Request) (*Result, error)
}
