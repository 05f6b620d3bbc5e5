package render

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// SpinnerStyle defines different spinner animation styles.
type SpinnerStyle int

const (
	// SpinnerBraille uses smooth braille dot animation
	SpinnerBraille SpinnerStyle = iota
	// SpinnerDots uses growing dots, safe for any terminal
	SpinnerDots
)

// Spinner provides an animated progress line while a correction runs.
type Spinner struct {
	style    SpinnerStyle
	frame    int
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a new spinner with the given style.
func NewSpinner(style SpinnerStyle) *Spinner {
	return &Spinner{
		style:    style,
		interval: 80 * time.Millisecond,
	}
}

// Frame returns the current animation frame string.
func (s *Spinner) Frame() string {
	frames := s.frames()
	return frames[s.frame%len(frames)]
}

// Advance moves to the next frame.
func (s *Spinner) Advance() {
	s.frame++
}

func (s *Spinner) frames() []string {
	switch s.style {
	case SpinnerBraille:
		return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	default:
		return []string{".  ", ".. ", "...", " ..", "  .", "   "}
	}
}

// Start redraws "frame message" on w until Stop is called.
func (s *Spinner) Start(w io.Writer, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		fmt.Fprint(w, CursorHide)
		for {
			fmt.Fprintf(w, "\r%s%s %s", ClearLine, s.Frame(), message)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%s%s", ClearLine, CursorShow)
				return
			case <-ticker.C:
				s.Advance()
			}
		}
	}(s.stop, s.done)
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.done = nil
}
