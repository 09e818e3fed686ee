// Package qa answers questions about stored documents. It caches document
// text, resolved paths and answers, builds a bounded context with the
// retrieval engine and asks a language model.
package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docqa/internal/cache"
	"docqa/internal/providers"
	"docqa/internal/retrieval"
	"docqa/internal/util"

	"go.uber.org/zap"
)

var (
	ErrNotFound = util.ErrDocumentNotFound
	ErrUpstream = util.ErrUpstream
)

// DocumentSource resolves a document id to a file and reads its text.
type DocumentSource interface {
	Path(ctx context.Context, documentID string) (string, error)
	Read(ctx context.Context, path string) (string, error)
}

type Completer interface {
	Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, providers.ProviderInfo, error)
}

// AnswerCache stores answers by key. Implementations expire entries on their
// own TTL.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}

// Recorder observes cache lookups and model calls.
type Recorder interface {
	CacheLookup(table string, hit bool)
	ModelCall(provider, status string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(string, bool) {}
func (nopRecorder) ModelCall(string, string, time.Duration) {}

// Params are the decoding parameters sent with every model call.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

type Config struct {
	Retrieval  retrieval.Options
	Params     Params
	ContentTTL time.Duration
	PathTTL    time.Duration
	AnswerTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Retrieval:  retrieval.DefaultOptions(),
		Params:     Params{Model: "llama-3.2-1b-preview", Temperature: 0.7, MaxTokens: 500},
		ContentTTL: 5 * time.Minute,
		PathTTL:    5 * time.Minute,
		AnswerTTL:  time.Hour,
	}
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithAnswerCache replaces the in-process answer table, e.g. with a Redis
// store shared between replicas.
func WithAnswerCache(c AnswerCache) Option {
	return func(s *Service) {
		if c != nil {
			s.answers = c
		}
	}
}

// WithClock drives expiry of the in-process tables.
func WithClock(c cache.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

type Service struct {
	source  DocumentSource
	model   Completer
	engine  *retrieval.Engine
	params  Params
	log     *zap.Logger
	rec     Recorder
	clock   cache.Clock
	content *cache.TTL[string]
	paths   *cache.TTL[string]
	answers AnswerCache
}

func NewService(source DocumentSource, model Completer, cfg Config, opts ...Option) *Service {
	d := DefaultConfig()
	if cfg.ContentTTL <= 0 {
		cfg.ContentTTL = d.ContentTTL
	}
	if cfg.PathTTL <= 0 {
		cfg.PathTTL = d.PathTTL
	}
	if cfg.AnswerTTL <= 0 {
		cfg.AnswerTTL = d.AnswerTTL
	}
	if cfg.Params.Model == "" {
		cfg.Params.Model = d.Params.Model
	}
	if cfg.Params.MaxTokens <= 0 {
		cfg.Params.MaxTokens = d.Params.MaxTokens
	}
	s := &Service{
		source: source,
		model:  model,
		engine: retrieval.NewEngine(cfg.Retrieval),
		params: cfg.Params,
		log:    zap.NewNop(),
		rec:    nopRecorder{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.content = cache.New[string](cfg.ContentTTL, cache.WithClock(s.clock))
	s.paths = cache.New[string](cfg.PathTTL, cache.WithClock(s.clock))
	if s.answers == nil {
		s.answers = NewMemoryAnswerCache(cfg.AnswerTTL, cache.WithClock(s.clock))
	}
	return s
}

// Answer returns the model's answer to question about the document. A cached
// answer is returned without touching the document or the model.
func (s *Service) Answer(ctx context.Context, documentID, question string) (string, error) {
	key := cache.AnswerKey(documentID, question)
	cached, ok, err := s.answers.Get(ctx, key)
	if err != nil {
		s.log.Warn("answer cache read failed", zap.String("document_id", documentID), zap.Error(err))
	}
	s.rec.CacheLookup("answer", ok)
	if ok {
		s.log.Debug("answer cache hit", zap.String("document_id", documentID))
		return cached, nil
	}

	text, err := s.documentText(ctx, documentID)
	if err != nil {
		return "", err
	}

	content := s.engine.BuildContext(text, question)
	s.log.Debug("context built",
		zap.String("document_id", documentID),
		zap.Int("document_runes", len([]rune(text))),
		zap.Int("context_runes", len([]rune(content))),
	)

	start := time.Now()
	resp, info, err := s.model.Complete(ctx, providers.CompletionRequest{
		Operation:    "answer",
		SystemPrompt: SystemPrompt,
		UserPrompt:   BuildPrompt(content, question),
		Model:        s.params.Model,
		Temperature:  s.params.Temperature,
		MaxTokens:    s.params.MaxTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		s.rec.ModelCall(info.Name, "error", elapsed)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		s.rec.ModelCall(info.Name, "empty", elapsed)
		return "", fmt.Errorf("%w: %s returned no content", ErrUpstream, providerName(info))
	}
	s.rec.ModelCall(info.Name, "ok", elapsed)

	if err := s.answers.Put(ctx, key, answer); err != nil {
		s.log.Warn("answer cache write failed", zap.String("document_id", documentID), zap.Error(err))
	}
	return answer, nil
}

func (s *Service) documentText(ctx context.Context, documentID string) (string, error) {
	if text, ok := s.content.Get(documentID); ok {
		s.rec.CacheLookup("content", true)
		return text, nil
	}
	s.rec.CacheLookup("content", false)

	path, err := s.ResolvePath(ctx, documentID)
	if err != nil {
		return "", err
	}
	text, err := s.source.Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", documentID, err)
	}
	s.content.Put(documentID, text)
	return text, nil
}

// ResolvePath returns the stored file for a document id, cached for the path
// TTL.
func (s *Service) ResolvePath(ctx context.Context, documentID string) (string, error) {
	if p, ok := s.paths.Get(documentID); ok {
		s.rec.CacheLookup("path", true)
		return p, nil
	}
	s.rec.CacheLookup("path", false)
	p, err := s.source.Path(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("resolve document %s: %w", documentID, err)
	}
	s.paths.Put(documentID, p)
	return p, nil
}

// Forget drops the cached text and path of one document.
func (s *Service) Forget(documentID string) {
	s.content.Delete(documentID)
	s.paths.Delete(documentID)
}

// Reset empties all three caches.
func (s *Service) Reset(ctx context.Context) error {
	s.content.Clear()
	s.paths.Clear()
	return s.answers.Clear(ctx)
}

func providerName(info providers.ProviderInfo) string {
	if info.Name == "" {
		return "model"
	}
	return info.Name
}
