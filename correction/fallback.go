package correction

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// wordRule replaces a whole word or phrase. Lowercase and capitalized
// spellings are corrected; any other casing (acronyms, shouting) is left
// alone.
type wordRule struct {
	re       *regexp.Regexp
	from, to string
}

func newWordRule(from, to string) wordRule {
	// RE2 has no lookaround: the leading boundary is matched, the trailing
	// one is checked by hand.
	return wordRule{
		re:   regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{M}\p{N}_])(` + regexp.QuoteMeta(from) + `)`),
		from: from,
		to:   to,
	}
}

func (r wordRule) apply(text string) string {
	var sb strings.Builder
	last := 0
	for _, m := range r.re.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if next, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && isWordRune(next) {
			continue
		}
		var repl string
		switch text[start:end] {
		case r.from:
			repl = r.to
		case capitalize(r.from):
			repl = capitalize(r.to)
		default:
			continue
		}
		sb.WriteString(text[last:start])
		sb.WriteString(repl)
		last = end
	}
	if last == 0 {
		return text
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.M, r)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

var fallbackRules = []wordRule{
	newWordRule("sa va", "ça va"),
	newWordRule("ca", "ça"),
	newWordRule("teh", "the"),
	newWordRule("recu", "reçu"),
	newWordRule("probleme", "problème"),
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Fallback corrects a handful of common mistakes without any network
// access. It is used when no language model is configured.
type Fallback struct{}

// NewFallback returns the offline provider.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Name returns the provider name.
func (f *Fallback) Name() string {
	return "local"
}

// Correct applies the rule set. Clarity mode also collapses runs of white
// space.
func (f *Fallback) Correct(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindTimeout, Err: err}
	}

	corrected := req.Text
	for _, r := range fallbackRules {
		corrected = r.apply(corrected)
	}
	if req.Mode == ModeClarity {
		corrected = strings.TrimSpace(multiSpace.ReplaceAllString(corrected, " "))
	}

	if corrected == req.Text {
		return &Result{CorrectedText: corrected, ConfidenceScore: 0.95, ChangesExplained: []Change{}}, nil
	}
	return &Result{
		CorrectedText:    corrected,
		ConfidenceScore:  0.78,
		ChangesExplained: []Change{{Original: req.Text, Corrected: corrected, Type: ChangeSpelling}},
	}, nil
}
