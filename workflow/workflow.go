// Package workflow drives one correction from trigger to replacement: it
// captures the selection, validates it, asks the correction provider,
// diffs the result for display and applies it on confirmation.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"typewise/config"
	"typewise/correction"
	"typewise/diff"
	"typewise/dom"
	"typewise/history"
	"typewise/selection"
)

var (
	ErrDisabled       = errors.New("corrections are disabled")
	ErrTooLong        = errors.New("selection too long")
	ErrEmptySelection = errors.New("selection is empty")
	ErrNoSnapshot     = errors.New("no selection captured")
	ErrBusy           = errors.New("a correction is already running")
)

// TooLongError reports the length of a rejected selection.
type TooLongError struct {
	Length int
	Max    int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("selection too long: %d characters, max %d", e.Length, e.Max)
}

func (e *TooLongError) Unwrap() error { return ErrTooLong }

// SettingsStore loads and saves the user settings. Settings are read on
// every trigger and run.
type SettingsStore interface {
	Load() (*config.Config, error)
	Save(*config.Config) error
}

// Recorder stores finished corrections.
type Recorder interface {
	Add(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Session is the correction workflow for one document. Its methods are
// safe to call from several goroutines; Cancel may interrupt a Run.
type Session struct {
	mu       sync.Mutex
	doc      *dom.Document
	engine   *selection.Engine
	provider correction.Provider
	settings SettingsStore
	history  Recorder
	logger   *slog.Logger
	now      func() time.Time

	snapshot *selection.Snapshot
	result   *correction.Result
	view     View
	running  bool
	runID    int
	cancel   context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithHistory records every successful correction in r.
func WithHistory(r Recorder) Option {
	return func(s *Session) { s.history = r }
}

// WithLogger sets the logger for workflow metrics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a session over doc. engine must be bound to doc.
func New(doc *dom.Document, engine *selection.Engine, provider correction.Provider, settings SettingsStore, opts ...Option) *Session {
	s := &Session{
		doc:      doc,
		engine:   engine,
		provider: provider,
		settings: settings,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns the current panel state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.clone()
}

// CorrectedText returns the text of the last successful correction, or "".
func (s *Session) CorrectedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return ""
	}
	return s.result.CorrectedText
}

// Trigger captures the current selection and runs a correction in the
// saved mode. Any earlier interaction is discarded first.
func (s *Session) Trigger(ctx context.Context) (View, error) {
	if err := s.capture(); err != nil {
		return s.View(), err
	}
	return s.Run(ctx, "")
}

func (s *Session) capture() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrBusy
	}
	s.reset()

	cfg, err := s.settings.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if !cfg.General.Enabled {
		return ErrDisabled
	}

	snap, err := s.engine.Capture()
	if err != nil {
		s.logEvent("capture", "error", "", 0, err)
		return err
	}

	text := snap.Text()
	length := len([]rune(text))
	if length > cfg.General.MaxTextLength {
		s.engine.Discard()
		return &TooLongError{Length: length, Max: cfg.General.MaxTextLength}
	}
	if strings.TrimFunc(text, unicode.IsSpace) == "" {
		s.engine.Discard()
		return ErrEmptySelection
	}

	s.snapshot = snap
	s.view = baseView(modeFromConfig(cfg), snap.AnchorRect())
	s.view.Status = "Ready to correct"
	return nil
}

// Run corrects the captured text in mode, or the saved mode when mode is
// empty. The chosen mode is saved. The provider call is bounded by the
// backend timeout and can be interrupted with Cancel.
func (s *Session) Run(ctx context.Context, mode correction.Mode) (View, error) {
	s.mu.Lock()
	if s.snapshot == nil {
		s.mu.Unlock()
		return s.View(), ErrNoSnapshot
	}
	if s.running {
		s.mu.Unlock()
		return s.View(), ErrBusy
	}

	cfg, err := s.settings.Load()
	if err != nil {
		s.mu.Unlock()
		return s.View(), fmt.Errorf("loading settings: %w", err)
	}
	if mode == "" {
		mode = modeFromConfig(cfg)
	}
	s.saveMode(cfg, mode)

	req := correction.Request{
		Text:     s.snapshot.Text(),
		Language: cfg.General.Language,
		Mode:     mode,
	}
	if !cfg.General.PrivacyEnhanced {
		req.Hostname = s.doc.Hostname()
	}

	timeout := cfg.Backend.Timeout()
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.runID++
	id := s.runID
	s.running = true
	s.cancel = cancel
	s.result = nil
	s.view = baseView(mode, s.snapshot.AnchorRect())
	s.view.Status = "Correcting..."
	s.view.Busy = true
	s.mu.Unlock()

	started := s.now()
	res, err := s.provider.Correct(ctx, req)
	latency := s.now().Sub(started)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.runID {
		// Cancelled or superseded while the provider was working.
		return s.view.clone(), context.Canceled
	}
	s.running = false
	s.cancel = nil

	metrics := []any{
		"mode", string(mode),
		"provider", s.provider.Name(),
		"latency_ms", latency.Milliseconds(),
		"length", len([]rune(req.Text)),
	}
	if req.Hostname != "" {
		metrics = append(metrics, "hostname", req.Hostname)
	}

	if err != nil {
		s.view = baseView(mode, s.snapshot.AnchorRect())
		s.view.Status = StatusMessage(err)
		s.logger.Warn("correction", append(metrics, "status", "error", "kind", correction.KindOf(err).String())...)
		return s.view.clone(), err
	}

	s.result = res
	s.record(ctx, mode, req.Text, res)

	s.view = baseView(mode, s.snapshot.AnchorRect())
	s.view.CorrectedText = res.CorrectedText
	s.view.Status = summary(res.ChangesExplained)
	s.view.Confidence = fmt.Sprintf("Confidence: %d%%", confidencePercent(res.ConfidenceScore))
	s.view.Quota = quotaText(res.QuotaRemaining)
	s.view.Spans = diff.Compute(req.Text, res.CorrectedText)

	if res.QuotaRemaining != nil {
		metrics = append(metrics, "quota_remaining", *res.QuotaRemaining)
	}
	s.logger.Info("correction", append(metrics, "status", "ok", "changes", len(res.ChangesExplained))...)
	return s.view.clone(), nil
}

// SetMode saves mode as the selected mode without running a correction.
func (s *Session) SetMode(mode correction.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.settings.Load()
	if err != nil {
		return err
	}
	cfg.General.Mode = string(mode)
	if err := s.settings.Save(cfg); err != nil {
		return err
	}
	s.view.SelectedMode = mode
	return nil
}

// Replace writes text over the captured selection and closes the
// interaction. Empty text is ignored.
func (s *Session) Replace(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return ErrNoSnapshot
	}
	if s.running {
		return ErrBusy
	}
	if text == "" {
		return nil
	}

	length := len([]rune(s.snapshot.Text()))
	if err := s.engine.Apply(text); err != nil {
		s.view.Status = StatusMessage(err)
		s.logEvent("replace", "error", s.view.SelectedMode, length, err)
		return err
	}

	s.logEvent("replace", "ok", s.view.SelectedMode, length, nil)
	s.snapshot = nil
	s.result = nil
	s.view = View{}
	return nil
}

// Cancel stops any running correction and drops the captured selection.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	if s.cancel != nil {
		s.cancel()
	}
	s.runID++
	s.running = false
	s.cancel = nil
	s.snapshot = nil
	s.result = nil
	s.view = View{}
	s.engine.Discard()
}

func (s *Session) saveMode(cfg *config.Config, mode correction.Mode) {
	if cfg.General.Mode == string(mode) {
		return
	}
	cfg.General.Mode = string(mode)
	if err := s.settings.Save(cfg); err != nil {
		s.logger.Warn("saving selected mode", "error", err)
	}
}

func (s *Session) record(ctx context.Context, mode correction.Mode, before string, res *correction.Result) {
	if s.history == nil {
		return
	}
	_, err := s.history.Add(ctx, history.Entry{
		Mode:       string(mode),
		Before:     before,
		After:      res.CorrectedText,
		Confidence: res.ConfidenceScore,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.logger.Warn("recording history", "error", err)
	}
}

// logEvent logs a workflow event without any user text.
func (s *Session) logEvent(event, status string, mode correction.Mode, length int, err error) {
	attrs := []any{"event", event, "status", status}
	if mode != "" {
		attrs = append(attrs, "mode", string(mode))
	}
	if length > 0 {
		attrs = append(attrs, "length", length)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.logger.Debug("workflow", attrs...)
}

func modeFromConfig(cfg *config.Config) correction.Mode {
	m, err := correction.ParseMode(cfg.General.Mode)
	if err != nil {
		return correction.ModeOrtho
	}
	return m
}
