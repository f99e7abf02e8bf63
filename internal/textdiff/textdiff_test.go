package textdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeIdentical(t *testing.T) {
	s := NewSummarizer(0)
	for _, text := range []string{"", "hello", "line one\nline two\n", "unicode ✓ ≠ ascii"} {
		sum := s.Summarize(text, text)
		require.Equal(t, Summary{}, sum)
		require.True(t, sum.IsZero())
	}
}

func TestSummarizeInsertOnly(t *testing.T) {
	s := NewSummarizer(0)
	sum := s.Summarize("hello", "hello world")
	require.Equal(t, Summary{Insertions: 6, Deletions: 0}, sum)
}

func TestSummarizeDeleteOnly(t *testing.T) {
	s := NewSummarizer(0)
	sum := s.Summarize("hello world", "hello")
	require.Equal(t, Summary{Insertions: 0, Deletions: 6}, sum)
}

func TestSummarizeAppendedLine(t *testing.T) {
	s := NewSummarizer(0)
	sum := s.Summarize("alpha\nbeta\n", "alpha\nbeta\ngamma\n")
	require.Equal(t, Summary{Insertions: 6, Deletions: 0}, sum)
}

func TestSummarizeMixed(t *testing.T) {
	s := NewSummarizer(0)
	sum := s.Summarize("the quick brown fox", "a slow brown cat")
	require.Positive(t, sum.Insertions)
	require.Positive(t, sum.Deletions)
}

func TestSummarizeSwapSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"", "something"},
		{"hello", "hello world"},
		{"one\ntwo\nthree\n", "one\n2\nthree\nfour\n"},
		{"aaaa", "bbbb"},
	}
	s := NewSummarizer(0)
	for _, p := range pairs {
		ab := s.Summarize(p[0], p[1])
		ba := s.Summarize(p[1], p[0])
		require.Equal(t, ab.Insertions, ba.Deletions, "%q vs %q", p[0], p[1])
		require.Equal(t, ab.Deletions, ba.Insertions, "%q vs %q", p[0], p[1])
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	s := NewSummarizer(0)
	from := strings.Repeat("row A\nrow B\n", 50)
	to := strings.Repeat("row A\nrow C\n", 50)
	first := s.Summarize(from, to)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, s.Summarize(from, to))
	}
}

func TestSummarizeCountsRunes(t *testing.T) {
	s := NewSummarizer(0)
	sum := s.Summarize("", "héllo")
	require.Equal(t, Summary{Insertions: 5, Deletions: 0}, sum)
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 1.0, Similarity("", ""))
	require.Equal(t, 1.0, Similarity("same", "same"))
	require.Equal(t, 0.0, Similarity("abcd", ""))
	got := Similarity("hello", "hello world")
	require.Greater(t, got, 0.0)
	require.Less(t, got, 1.0)
}
