package retrieval

// Engine runs split, select and assemble with a fixed set of options.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.WithDefaults()}
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) Split(text string) []string {
	return SplitChunks(text, e.opts.ChunkSize)
}

func (e *Engine) Select(chunks []string, question string) []string {
	return SelectChunks(chunks, question, e.opts)
}

// BuildContext returns the bounded context for question over text. Empty
// text yields an empty context.
func (e *Engine) BuildContext(text, question string) string {
	chunks := e.Split(text)
	selected := e.Select(chunks, question)
	return AssembleContext(selected, e.opts.MaxContextLength, *e.opts.MinPartialChunk)
}
