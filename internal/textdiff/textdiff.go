// Package textdiff reduces the difference between two texts to
// insertion/deletion character counts, using the sergi/go-diff engine.
package textdiff

import (
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summary counts the characters covered by insertion and deletion spans.
// Equal spans contribute nothing.
type Summary struct {
	Insertions int
	Deletions  int
}

// IsZero reports whether the summary records no divergence.
func (s Summary) IsZero() bool { return s.Insertions == 0 && s.Deletions == 0 }

// Summarizer computes summaries with a bounded diff.
type Summarizer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// DefaultTimeout bounds the diff when no explicit timeout is configured.
// When the bound is hit the engine returns a coarser but valid edit script,
// never an error.
const DefaultTimeout = time.Second

// NewSummarizer returns a Summarizer whose diff is bounded by timeout.
// A timeout <= 0 falls back to DefaultTimeout.
func NewSummarizer(timeout time.Duration) *Summarizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = timeout
	return &Summarizer{dmp: dmp}
}

// Summarize diffs from -> to and counts inserted and deleted characters.
// Identical inputs short-circuit without invoking the diff engine, so calling
// this on every keystroke is cheap when nothing changed.
func (s *Summarizer) Summarize(from, to string) Summary {
	if from == to {
		return Summary{}
	}
	// checklines runs a line-level pass first, keeping large documents tractable.
	diffs := s.dmp.DiffMain(from, to, true)
	diffs = s.dmp.DiffCleanupSemantic(diffs)

	var sum Summary
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sum.Insertions += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			sum.Deletions += len([]rune(d.Text))
		}
	}
	return sum
}

// Similarity returns a ratio in [0,1] where 1 means identical texts.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
