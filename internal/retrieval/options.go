// Package retrieval picks the passages of a document that are most relevant
// to a question and packs them into a bounded context string.
//
// Relevance is lexical: question keywords are matched against chunk text by
// substring. The weights and thresholds are empirical defaults and can be
// overridden through Options.
package retrieval

const (
	DefaultChunkSize          = 500
	DefaultMaxChunks          = 8
	DefaultMaxContextLength   = 4000
	DefaultMinPartialChunk    = 100
	DefaultRelevanceThreshold = 0.1
)

// Weights combine the per-chunk signals into one score.
type Weights struct {
	Density  float64 `yaml:"density"`
	Partial  float64 `yaml:"partial"`
	Context  float64 `yaml:"context"`
	Metadata float64 `yaml:"metadata"`
}

func DefaultWeights() Weights {
	return Weights{Density: 0.4, Partial: 0.2, Context: 0.2, Metadata: 0.2}
}

func (w Weights) isZero() bool {
	return w == Weights{}
}

// Options are the tunables of the engine. Zero sizes fall back to defaults.
// MinPartialChunk and RelevanceThreshold are pointers because zero is a
// meaningful setting for both; nil means default.
type Options struct {
	ChunkSize          int      `yaml:"chunk_size"`
	MaxChunks          int      `yaml:"max_chunks"`
	MaxContextLength   int      `yaml:"max_context_length"`
	MinPartialChunk    *int     `yaml:"min_partial_chunk"`
	RelevanceThreshold *float64 `yaml:"relevance_threshold"`
	Weights            Weights  `yaml:"weights"`
	StopWords          []string `yaml:"stop_words"`
	MetadataKeywords   []string `yaml:"metadata_keywords"`
}

// DefaultStopWords are articles, wh-words and prepositions that carry no
// topical signal in a question. Longer lists go in the retrieval YAML file.
var DefaultStopWords = []string{
	"a", "an", "the",
	"what", "when", "where", "who", "why", "how",
	"is", "are",
	"in", "on", "at", "to", "for", "of", "with", "by",
}

// DefaultMetadataKeywords mark questions about the document itself rather
// than its subject, and the chunk terms that answer them.
var DefaultMetadataKeywords = []string{
	"title", "author", "authors", "written", "published", "publication", "publisher",
	"date", "version", "edition", "copyright", "year",
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:          DefaultChunkSize,
		MaxChunks:          DefaultMaxChunks,
		MaxContextLength:   DefaultMaxContextLength,
		MinPartialChunk:    Int(DefaultMinPartialChunk),
		RelevanceThreshold: Float(DefaultRelevanceThreshold),
		Weights:            DefaultWeights(),
		StopWords:          append([]string(nil), DefaultStopWords...),
		MetadataKeywords:   append([]string(nil), DefaultMetadataKeywords...),
	}
}

// WithDefaults fills unset fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = d.MaxChunks
	}
	if o.MaxContextLength <= 0 {
		o.MaxContextLength = d.MaxContextLength
	}
	if o.MinPartialChunk == nil || *o.MinPartialChunk < 0 {
		o.MinPartialChunk = d.MinPartialChunk
	}
	if o.RelevanceThreshold == nil || *o.RelevanceThreshold < 0 {
		o.RelevanceThreshold = d.RelevanceThreshold
	}
	if o.Weights.isZero() {
		o.Weights = d.Weights
	}
	if o.StopWords == nil {
		o.StopWords = d.StopWords
	}
	if o.MetadataKeywords == nil {
		o.MetadataKeywords = d.MetadataKeywords
	}
	return o
}

// Int returns a pointer to v, for the optional integer fields of Options.
func Int(v int) *int { return &v }

// Float returns a pointer to v, for the optional float fields of Options.
func Float(v float64) *float64 { return &v }
