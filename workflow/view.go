package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"

	"typewise/correction"
	"typewise/diff"
	"typewise/dom"
	"typewise/selection"
)

// ModeOption is one entry of the mode picker.
type ModeOption struct {
	Mode  correction.Mode
	Label string
}

// View is what the correction panel shows.
type View struct {
	Open          bool
	ModeOptions   []ModeOption
	SelectedMode  correction.Mode
	Status        string
	Confidence    string
	Quota         string
	CorrectedText string
	Spans         []diff.Span
	Anchor        dom.Rect
	Busy          bool
}

func baseView(mode correction.Mode, anchor dom.Rect) View {
	opts := make([]ModeOption, len(correction.Modes))
	for i, m := range correction.Modes {
		opts[i] = ModeOption{Mode: m, Label: m.Label()}
	}
	return View{
		Open:         true,
		ModeOptions:  opts,
		SelectedMode: mode,
		Confidence:   "Confidence: -",
		Quota:        "Quota: -",
		Anchor:       anchor,
	}
}

func (v View) clone() View {
	v.ModeOptions = append([]ModeOption(nil), v.ModeOptions...)
	v.Spans = append([]diff.Span(nil), v.Spans...)
	return v
}

func summary(changes []correction.Change) string {
	if len(changes) == 0 {
		return "No major changes."
	}
	return fmt.Sprintf("%d change(s) detected.", len(changes))
}

func confidencePercent(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(score * 100))
}

func quotaText(remaining *int) string {
	if remaining == nil {
		return "Quota remaining: -"
	}
	return fmt.Sprintf("Quota remaining: %d", *remaining)
}

// StatusMessage turns err into the status line shown to the user.
func StatusMessage(err error) string {
	if err == nil {
		return ""
	}

	var tooLong *TooLongError
	switch {
	case errors.Is(err, ErrDisabled):
		return "Corrections are disabled in settings."
	case errors.As(err, &tooLong):
		return fmt.Sprintf("Selection too long (%d characters max).", tooLong.Max)
	case errors.Is(err, ErrEmptySelection), errors.Is(err, selection.ErrNoSelection):
		return "Select some text in an editable field."
	case errors.Is(err, selection.ErrNotEditable):
		return "The selected text is not editable."
	case errors.Is(err, ErrNoSnapshot), errors.Is(err, selection.ErrNothingPending):
		return "Nothing to replace. Select text and run a correction first."
	case errors.Is(err, selection.ErrReplacementFailed):
		return "The field changed since the selection. Select the text again."
	case errors.Is(err, ErrBusy):
		return "A correction is already running."
	case errors.Is(err, context.Canceled):
		return "Correction cancelled."
	}

	switch correction.KindOf(err) {
	case correction.KindUnauthorized:
		return "Session invalid. Sign in again with --login."
	case correction.KindQuotaExceeded:
		return "Quota exceeded. Upgrade to premium or try again tomorrow."
	case correction.KindServer:
		return "Server unavailable. Try again in a few seconds."
	case correction.KindTimeout:
		return "Server timeout."
	}

	var ce *correction.Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error."
}
