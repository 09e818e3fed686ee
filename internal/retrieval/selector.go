package retrieval

import (
	"sort"
	"strings"
)

type scoredChunk struct {
	index int
	score float64
}

// chunkStats caches the lower-cased text and words of one chunk.
type chunkStats struct {
	lower string
	words []string
}

func newChunkStats(chunk string) chunkStats {
	lower := strings.ToLower(chunk)
	return chunkStats{lower: lower, words: strings.Fields(lower)}
}

func countContained(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

func keywordRatio(st chunkStats, keywords []string) (float64, bool) {
	if len(st.words) == 0 {
		return 0, false
	}
	return float64(countContained(st.lower, keywords)) / float64(len(st.words)), true
}

// scoreChunk computes the weighted relevance of chunk i. The second result is
// false for chunks without words, which are never selected.
func scoreChunk(stats []chunkStats, i int, keywords []string, metadataQuery bool, opts Options) (float64, bool) {
	st := stats[i]
	w := float64(len(st.words))
	if w == 0 {
		return 0, false
	}

	density := float64(countContained(st.lower, keywords)) / w

	pairs := 0
	for _, k := range keywords {
		for _, word := range st.words {
			if strings.Contains(word, k) || strings.Contains(k, word) {
				pairs++
			}
		}
	}
	partial := float64(pairs) / w

	// neighbor ratios are summed and the sum halved; missing or empty
	// neighbors contribute nothing
	var ctxSum float64
	for _, j := range []int{i - 1, i + 1} {
		if j < 0 || j >= len(stats) {
			continue
		}
		if r, ok := keywordRatio(stats[j], keywords); ok {
			ctxSum += r
		}
	}
	context := ctxSum / 2

	metadata := 0.0
	if metadataQuery {
		metadata = float64(countContained(st.lower, lowerAll(opts.MetadataKeywords))) / w
	}

	wt := opts.Weights
	return wt.Density*density + wt.Partial*partial + wt.Context*context + wt.Metadata*metadata, true
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// SelectChunks returns at most opts.MaxChunks chunks relevant to the
// question, in document order. Chunks are taken by descending score; a chunk
// scoring above the relevance threshold also pulls in its direct neighbors.
func SelectChunks(chunks []string, question string, opts Options) []string {
	opts = opts.WithDefaults()
	if len(chunks) == 0 {
		return nil
	}
	keywords := ExtractKeywords(question, opts.StopWords)
	metadataQuery := IsMetadataQuery(keywords, opts.MetadataKeywords)

	stats := make([]chunkStats, len(chunks))
	for i, c := range chunks {
		stats[i] = newChunkStats(c)
	}

	scored := make([]scoredChunk, 0, len(chunks))
	for i := range chunks {
		s, ok := scoreChunk(stats, i, keywords, metadataQuery, opts)
		if !ok {
			continue
		}
		scored = append(scored, scoredChunk{index: i, score: s})
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })

	selected := make([]bool, len(chunks))
	picked := make([]int, 0, opts.MaxChunks)
	add := func(i int) {
		if i < 0 || i >= len(chunks) || selected[i] || len(stats[i].words) == 0 {
			return
		}
		if len(picked) >= opts.MaxChunks {
			return
		}
		selected[i] = true
		picked = append(picked, i)
	}

	for _, sc := range scored {
		if len(picked) >= opts.MaxChunks {
			break
		}
		if selected[sc.index] {
			continue
		}
		add(sc.index)
		if sc.score > *opts.RelevanceThreshold {
			add(sc.index - 1)
			add(sc.index + 1)
		}
	}

	sort.Ints(picked)
	out := make([]string, 0, len(picked))
	for _, i := range picked {
		out = append(out, chunks[i])
	}
	return out
}
