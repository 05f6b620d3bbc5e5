// Package diff computes token-level differences between an original and a
// corrected string for display.
package diff

import (
	"encoding/json"
	"strings"
)

// SpanType classifies a span of diff output.
type SpanType int

const (
	Same SpanType = iota
	Add
	Remove
	Change
)

// String returns the lowercase name used in JSON and rendering.
func (t SpanType) String() string {
	switch t {
	case Same:
		return "same"
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Change:
		return "change"
	default:
		return "unknown"
	}
}

// Span is a contiguous, typed chunk of diff output.
//
// Old holds the original-side text and New the corrected-side text. A Same
// span has Old == New, an Add span only New, a Remove span only Old, and a
// Change span both halves.
type Span struct {
	Type SpanType
	Old  string
	New  string
}

// Text returns the display text of the span. Change spans render as
// "old|new".
func (s Span) Text() string {
	switch s.Type {
	case Add:
		return s.New
	case Remove:
		return s.Old
	case Change:
		return s.Old + "|" + s.New
	default:
		return s.Old
	}
}

// MarshalJSON encodes the span as {"type", "text", "old", "new"}.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
		Old  string `json:"old,omitempty"`
		New  string `json:"new,omitempty"`
	}{s.Type.String(), s.Text(), s.Old, s.New})
}

// Compute tokenizes both strings and returns the compacted span sequence
// describing how original becomes corrected.
//
// Cost is O(m*n) in the token counts; callers bound input length.
func Compute(original, corrected string) []Span {
	a := Tokenize(original)
	b := Tokenize(corrected)
	table := lcsTable(a, b)
	return compact(mergeChanges(backtrack(a, b, table)))
}

// lcsTable fills the longest-common-subsequence lengths from the
// bottom-right corner: table[i][j] is the LCS length of a[i:] and b[j:].
func lcsTable(a, b []string) [][]int {
	m, n := len(a), len(b)
	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
	}

	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}
	return table
}

// backtrack walks the table from (0,0). On equal scores it removes from a
// before adding from b; display code depends on that ordering.
func backtrack(a, b []string, table [][]int) []Span {
	ops := make([]Span, 0, len(a)+len(b))
	i, j := 0, 0

	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			ops = append(ops, Span{Type: Same, Old: a[i], New: b[j]})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			ops = append(ops, Span{Type: Remove, Old: a[i]})
			i++
		default:
			ops = append(ops, Span{Type: Add, New: b[j]})
			j++
		}
	}

	for ; i < len(a); i++ {
		ops = append(ops, Span{Type: Remove, Old: a[i]})
	}
	for ; j < len(b); j++ {
		ops = append(ops, Span{Type: Add, New: b[j]})
	}

	return ops
}

// mergeChanges folds a remove immediately followed by an add (or an add
// followed by a remove) into a single change.
func mergeChanges(ops []Span) []Span {
	merged := make([]Span, 0, len(ops))
	for i := 0; i < len(ops); i++ {
		cur := ops[i]
		if i+1 < len(ops) {
			next := ops[i+1]
			switch {
			case cur.Type == Remove && next.Type == Add:
				merged = append(merged, Span{Type: Change, Old: cur.Old, New: next.New})
				i++
				continue
			case cur.Type == Add && next.Type == Remove:
				merged = append(merged, Span{Type: Change, Old: next.Old, New: cur.New})
				i++
				continue
			}
		}
		merged = append(merged, cur)
	}
	return merged
}

// compact concatenates neighbouring spans of the same type.
func compact(spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}

	out := []Span{spans[0]}
	for _, cur := range spans[1:] {
		prev := &out[len(out)-1]
		if prev.Type == cur.Type {
			prev.Old += cur.Old
			prev.New += cur.New
			continue
		}
		out = append(out, cur)
	}
	return out
}

// Original reconstructs the original text from a span sequence.
func Original(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.Type != Add {
			sb.WriteString(s.Old)
		}
	}
	return sb.String()
}

// Corrected reconstructs the corrected text from a span sequence.
func Corrected(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.Type != Remove {
			sb.WriteString(s.New)
		}
	}
	return sb.String()
}

// Changed reports whether any span differs between the two sides.
func Changed(spans []Span) bool {
	for _, s := range spans {
		if s.Type != Same {
			return true
		}
	}
	return false
}
