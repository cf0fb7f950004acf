package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Stage is one step of the draft-generation pipeline: a function from the
// accumulated transcript to a text output.
type Stage interface {
	// Name identifies the stage in transcripts and errors.
	Name() string

	// Run produces the stage's output from the transcript so far.
	Run(ctx context.Context, t *Transcript) (string, error)
}

// Entry is a single stage output recorded in a transcript.
type Entry struct {
	Stage string
	Text  string
}

// Transcript maintains the ordered outputs of completed stages,
// automatically trimming the oldest entries when the limit is reached.
// The first entry (the seed input) is always kept.
type Transcript struct {
	mu         sync.Mutex
	entries    []Entry
	maxEntries int
}

// NewTranscript creates a transcript with a default maximum of 20 entries.
func NewTranscript() *Transcript {
	return &Transcript{
		entries:    make([]Entry, 0, 20),
		maxEntries: 20,
	}
}

// Append records a stage output. If the number of entries exceeds the
// maximum, the oldest entries after the first are trimmed.
func (t *Transcript) Append(stage, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, Entry{Stage: stage, Text: text})

	if len(t.entries) > t.maxEntries {
		trimmed := make([]Entry, 0, t.maxEntries)
		trimmed = append(trimmed, t.entries[0])
		excess := len(t.entries) - t.maxEntries
		trimmed = append(trimmed, t.entries[1+excess:]...)
		t.entries = trimmed
	}
}

// Entries returns a copy of the recorded entries.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Last returns the text of the most recent entry, or "" when empty.
func (t *Transcript) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == 0 {
		return ""
	}
	return t.entries[len(t.entries)-1].Text
}

// Seed returns the text of the first entry, or "" when empty.
func (t *Transcript) Seed() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == 0 {
		return ""
	}
	return t.entries[0].Text
}

// Chain composes stages by fixed sequential order: each stage sees the
// transcript of everything before it, and the final stage's output is the
// chain's result.
type Chain struct {
	stages []Stage
}

// NewChain creates a chain running the given stages in order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run executes the chain over the seed input.
func (c *Chain) Run(ctx context.Context, seed string) (string, error) {
	t := NewTranscript()
	t.Append("input", seed)

	var out string
	for _, s := range c.stages {
		text, err := s.Run(ctx, t)
		if err != nil {
			return "", fmt.Errorf("running stage %s: %w", s.Name(), err)
		}
		t.Append(s.Name(), text)
		out = text
	}

	return out, nil
}
