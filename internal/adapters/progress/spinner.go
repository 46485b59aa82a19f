package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

const stageCompleted = "completed"

type stageInfo struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
	Message   string
}

// SpinnerSink renders orchestrator progress as a spinner followed by a
// timeline of finished stages.
type SpinnerSink struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
}

// NewSpinnerSink creates a spinner sink writing to stderr.
func NewSpinnerSink() *SpinnerSink {
	return newSpinnerSink(os.Stderr)
}

func newSpinnerSink(out io.Writer) *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	return &SpinnerSink{spinner: s, out: out}
}

// OnProgress advances the stage timeline.
func (r *SpinnerSink) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.stages); n > 0 && r.stages[n-1].Stage != event.Stage && r.stages[n-1].EndTime.IsZero() {
		r.stages[n-1].EndTime = time.Now()
	}
	if n := len(r.stages); n == 0 || r.stages[n-1].Stage != event.Stage {
		r.stages = append(r.stages, stageInfo{Stage: event.Stage, StartTime: time.Now()})
	}
	r.stages[len(r.stages)-1].Message = event.Message

	if event.Stage == stageCompleted || !event.Spinner {
		r.stopLocked()
		if event.Message != "" {
			fmt.Fprintln(r.out, color.New(color.FgGreen).Sprint("✓ ")+event.Message)
		}
		return
	}

	r.spinner.Suffix = " " + r.suffix(event)
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.println(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.println(color.New(color.FgRed), message)
}

func (r *SpinnerSink) println(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	fmt.Fprintln(r.out, c.Sprint(message))
	if wasActive {
		r.spinner.Start()
	}
}

func (r *SpinnerSink) stopLocked() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// suffix renders "✓ access (1.2s) → ● deploy: Deploying facets".
func (r *SpinnerSink) suffix(event usecase.ProgressEvent) string {
	parts := make([]string, 0, len(r.stages))
	for _, stage := range r.stages {
		if stage.EndTime.IsZero() {
			continue
		}
		duration := stage.EndTime.Sub(stage.StartTime).Round(100 * time.Millisecond)
		parts = append(parts, fmt.Sprintf("%s %s (%s)", color.GreenString("✓"), stage.Stage, duration))
	}
	current := fmt.Sprintf("%s %s", color.YellowString("●"), event.Stage)
	if event.Message != "" {
		current += ": " + event.Message
	}
	if event.Total > 0 {
		current += fmt.Sprintf(" [%d/%d]", event.Current, event.Total)
	}
	parts = append(parts, current)
	return strings.Join(parts, " → ")
}

// Stages returns the recorded stage names in order.
func (r *SpinnerSink) Stages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Stage
	}
	return names
}

// NopSink is a no-op implementation of ProgressSink
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() *NopSink {
	return &NopSink{}
}

func (n *NopSink) OnProgress(context.Context, usecase.ProgressEvent) {}
func (n *NopSink) Info(string)                                      {}
func (n *NopSink) Error(string)                                     {}

var (
	_ usecase.ProgressSink = (*SpinnerSink)(nil)
	_ usecase.ProgressSink = (*NopSink)(nil)
)
