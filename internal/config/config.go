package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"docqa/internal/retrieval"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIAddr              string
	UploadDir            string
	MaxUploadSize        int64
	AllowedExtensions    []string
	ModelName            string
	LLMProviders         string
	LLMTemperature       float64
	LLMMaxTokens         int
	LLMRequestsPerMinute int
	ProviderCooldownSecs int
	ChunkSize            int
	MaxChunks            int
	MaxContextLength     int
	RetrievalConfigPath  string
	ContentTTLSeconds    int
	PathTTLSeconds       int
	AnswerTTLSeconds     int
	PostgresURL          string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	TemporalAddress      string
	TemporalTaskQueue    string
	LogLevel             string
	LogFormat            string
}

func Load() Config {
	return Config{
		APIAddr:              getenv("DOCQA_API_ADDR", ":8000"),
		UploadDir:            getenv("DOCQA_UPLOAD_DIR", "./uploads"),
		MaxUploadSize:        int64(getenvInt("DOCQA_MAX_UPLOAD_SIZE", 10*1024*1024)),
		AllowedExtensions:    getenvList("DOCQA_ALLOWED_EXTENSIONS", []string{"txt", "pdf", "doc", "docx"}),
		ModelName:            getenv("DOCQA_MODEL_NAME", "llama-3.2-1b-preview"),
		LLMProviders:         getenv("DOCQA_LLM_PROVIDERS", "mock"),
		LLMTemperature:       getenvFloat("DOCQA_LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:         getenvInt("DOCQA_LLM_MAX_TOKENS", 500),
		LLMRequestsPerMinute: getenvInt("DOCQA_LLM_RPM", 30),
		ProviderCooldownSecs: getenvInt("DOCQA_PROVIDER_COOLDOWN_SECONDS", 300),
		ChunkSize:            getenvInt("DOCQA_CHUNK_SIZE", retrieval.DefaultChunkSize),
		MaxChunks:            getenvInt("DOCQA_MAX_CHUNKS", retrieval.DefaultMaxChunks),
		MaxContextLength:     getenvInt("DOCQA_MAX_CONTEXT_LENGTH", retrieval.DefaultMaxContextLength),
		RetrievalConfigPath:  getenv("DOCQA_RETRIEVAL_CONFIG", ""),
		ContentTTLSeconds:    getenvInt("DOCQA_CONTENT_TTL_SECONDS", 300),
		PathTTLSeconds:       getenvInt("DOCQA_PATH_TTL_SECONDS", 300),
		AnswerTTLSeconds:     getenvInt("DOCQA_ANSWER_TTL_SECONDS", 3600),
		PostgresURL:          getenv("DOCQA_POSTGRES_URL", ""),
		RedisAddr:            getenv("DOCQA_REDIS_ADDR", ""),
		RedisPassword:        getenv("DOCQA_REDIS_PASSWORD", ""),
		RedisDB:              getenvInt("DOCQA_REDIS_DB", 0),
		TemporalAddress:      getenv("DOCQA_TEMPORAL_ADDRESS", ""),
		TemporalTaskQueue:    getenv("DOCQA_TEMPORAL_TASK_QUEUE", "docqa"),
		LogLevel:             getenv("DOCQA_LOG_LEVEL", "info"),
		LogFormat:            getenv("DOCQA_LOG_FORMAT", "json"),
	}
}

// RetrievalOptions builds the engine options from the env sizes. A YAML file
// named by DOCQA_RETRIEVAL_CONFIG is applied on top.
func (c Config) RetrievalOptions() (retrieval.Options, error) {
	opts := retrieval.DefaultOptions()
	if c.ChunkSize > 0 {
		opts.ChunkSize = c.ChunkSize
	}
	if c.MaxChunks > 0 {
		opts.MaxChunks = c.MaxChunks
	}
	if c.MaxContextLength > 0 {
		opts.MaxContextLength = c.MaxContextLength
	}
	if c.RetrievalConfigPath == "" {
		return opts.WithDefaults(), nil
	}
	return LoadRetrieval(c.RetrievalConfigPath, opts)
}

// LoadRetrieval reads scoring weights, stop words and size limits from a YAML
// file over base. Fields absent from the file keep their base value.
func LoadRetrieval(path string, base retrieval.Options) (retrieval.Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return retrieval.Options{}, fmt.Errorf("read retrieval config: %w", err)
	}
	opts := base
	// decode pointer fields into fresh values so base is left untouched
	opts.MinPartialChunk, opts.RelevanceThreshold = nil, nil
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return retrieval.Options{}, fmt.Errorf("parse retrieval config: %w", err)
	}
	if opts.MinPartialChunk == nil {
		opts.MinPartialChunk = base.MinPartialChunk
	}
	if opts.RelevanceThreshold == nil {
		opts.RelevanceThreshold = base.RelevanceThreshold
	}
	return opts.WithDefaults(), nil
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvList(k string, fallback []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "."))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
