package retrieval

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportText = "The Great Report. Written by Jane Doe. This report covers Q1 sales."

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"author"}, ExtractKeywords("Who is the author?", DefaultStopWords))
	assert.Equal(t, []string{"kernel", "scheduler"}, ExtractKeywords("How does the Kernel scheduler, the kernel, work", []string{"how", "does", "the", "work"}))
	assert.Equal(t, []string{"this", "about"}, ExtractKeywords("What is this about?", DefaultStopWords))
	assert.Empty(t, ExtractKeywords("What is the?", DefaultStopWords))
}

func TestIsMetadataQuery(t *testing.T) {
	assert.True(t, IsMetadataQuery([]string{"author"}, DefaultMetadataKeywords))
	assert.True(t, IsMetadataQuery([]string{"report", "title"}, DefaultMetadataKeywords))
	assert.False(t, IsMetadataQuery([]string{"sales"}, DefaultMetadataKeywords))
	assert.False(t, IsMetadataQuery(nil, DefaultMetadataKeywords))
}

func TestSelectChunksMetadataQuestion(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 20
	opts.MaxChunks = 1

	chunks := SplitChunks(reportText, opts.ChunkSize)
	require.Equal(t, []string{"The Great Report.", "Written by Jane Doe.", "This report covers Q1 sales."}, chunks)

	got := SelectChunks(chunks, "Who is the author?", opts)
	assert.Equal(t, []string{"Written by Jane Doe."}, got)
}

func TestEngineBuildContextMetadataScenario(t *testing.T) {
	e := NewEngine(Options{})
	ctx := e.BuildContext(reportText, "Who is the author?")
	assert.Contains(t, ctx, "Written by Jane Doe.")
}

func TestSelectChunksPullsNeighbors(t *testing.T) {
	chunks := []string{
		"intro text here",
		"the kernel scheduler handles threads",
		"unrelated closing words",
		"more filler text",
		"final filler",
	}
	opts := DefaultOptions()

	opts.MaxChunks = 3
	assert.Equal(t, chunks[:3], SelectChunks(chunks, "kernel scheduler", opts))

	opts.MaxChunks = 2
	assert.Equal(t, chunks[:2], SelectChunks(chunks, "kernel scheduler", opts))
}

func TestSelectChunksBoundAndOrder(t *testing.T) {
	chunks := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		chunks = append(chunks, fmt.Sprintf("chunk %d mentions widgets %d times", i, i%4))
	}
	opts := DefaultOptions()
	opts.MaxChunks = 5

	got := SelectChunks(chunks, "widgets 3", opts)
	require.Len(t, got, 5)

	pos := map[string]int{}
	for i, c := range chunks {
		pos[c] = i
	}
	for i := 1; i < len(got); i++ {
		assert.Less(t, pos[got[i-1]], pos[got[i]], "selection must be in document order")
	}

	again := SelectChunks(chunks, "widgets 3", opts)
	assert.Equal(t, got, again)
}

func TestScoreChunkInteriorContext(t *testing.T) {
	chunks := []string{"kernel", "filler words", "kernel"}
	stats := make([]chunkStats, len(chunks))
	for i, c := range chunks {
		stats[i] = newChunkStats(c)
	}
	opts := DefaultOptions()

	// both neighbors are all keyword: (1 + 1) / 2 = 1, times the 0.2 weight
	got, ok := scoreChunk(stats, 1, []string{"kernel"}, false, opts)
	require.True(t, ok)
	assert.InDelta(t, 0.2, got, 1e-9)
	assert.Greater(t, got, *opts.RelevanceThreshold)

	// a single neighbor is halved the same way
	got, ok = scoreChunk(stats, 0, []string{"filler"}, false, opts)
	require.True(t, ok)
	assert.InDelta(t, 0.2*0.5/2, got, 1e-9)
}

func TestSelectChunksZeroThreshold(t *testing.T) {
	chunks := []string{
		"alpha " + strings.Repeat("x ", 19),
		"zeta",
		"filler",
		"padding",
		"alpha " + strings.Repeat("x ", 39),
	}
	opts := DefaultOptions()
	opts.MaxChunks = 2
	assert.Equal(t, []string{chunks[0], chunks[4]}, SelectChunks(chunks, "alpha", opts))

	opts.RelevanceThreshold = Float(0)
	assert.Equal(t, 0.0, *opts.WithDefaults().RelevanceThreshold)
	assert.Equal(t, []string{chunks[0], chunks[1]}, SelectChunks(chunks, "alpha", opts))
}

func TestWithDefaultsKeepsZeroMinPartial(t *testing.T) {
	opts := Options{MinPartialChunk: Int(0)}.WithDefaults()
	assert.Equal(t, 0, *opts.MinPartialChunk)
	assert.Equal(t, DefaultMinPartialChunk, *Options{}.WithDefaults().MinPartialChunk)
	assert.Equal(t, DefaultRelevanceThreshold, *Options{}.WithDefaults().RelevanceThreshold)
}

func TestSelectChunksSkipsEmptyChunks(t *testing.T) {
	got := SelectChunks([]string{"", "   ", "alpha beta"}, "alpha", DefaultOptions())
	assert.Equal(t, []string{"alpha beta"}, got)
}

func TestSelectChunksNoKeywords(t *testing.T) {
	chunks := []string{"one two", "three four", "five six"}
	got := SelectChunks(chunks, "What is the?", DefaultOptions())
	assert.Equal(t, chunks, got)
}

func TestSelectChunksEmpty(t *testing.T) {
	assert.Empty(t, SelectChunks(nil, "anything", DefaultOptions()))
}
