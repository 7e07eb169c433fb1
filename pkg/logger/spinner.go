package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Spinner animates a message for long-running operations
type Spinner struct {
	mu       sync.Mutex
	active   bool
	message  string
	frames   []string
	interval time.Duration
	stopChan chan struct{}
}

var spinnerDots = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner with the given message
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message:  message,
		frames:   spinnerDots,
		interval: 100 * time.Millisecond,
		stopChan: make(chan struct{}),
	}
}

// Start begins the animation
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	go func() {
		i := 0
		for {
			select {
			case <-s.stopChan:
				fmt.Printf("\r%s\r", strings.Repeat(" ", len(s.message)+10))
				return
			default:
				frame := s.frames[i%len(s.frames)]
				if l, ok := defaultLogger.(*logger); ok && !l.noColor {
					fmt.Printf("\r%s%s%s %s", colorCyan, frame, colorReset, s.message)
				} else {
					fmt.Printf("\r%s %s", frame, s.message)
				}
				i++
				time.Sleep(s.interval)
			}
		}
	}()
}

// Stop halts the animation and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.active = false
	close(s.stopChan)
	time.Sleep(50 * time.Millisecond) // let the goroutine clear the line
}

// Success stops the spinner and logs a success message
func (s *Spinner) Success(message string) {
	s.Stop()
	Success(message)
}

// Error stops the spinner and logs an error message
func (s *Spinner) Error(message string) {
	s.Stop()
	Error(message)
}
