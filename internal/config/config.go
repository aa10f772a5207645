package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the complete, immutable forumsearch core configuration. A
// single Settings value is constructed at startup and passed by reference
// into every constructor — there is no global mutable configuration state.
// A daemon may hot-reload a new Settings snapshot and swap it atomically
// (see Watch), but no existing Settings value is ever mutated in place.
type Settings struct {
	Version int `yaml:"version" json:"version"`

	Storage      StorageSettings      `yaml:"storage" json:"storage"`
	Shard        ShardSettings        `yaml:"shard" json:"shard"`
	BM25         BM25Settings         `yaml:"bm25" json:"bm25"`
	TFIDF        TFIDFSettings        `yaml:"tfidf" json:"tfidf"`
	Vector       VectorSettings       `yaml:"vector" json:"vector"`
	Search       SearchSettings       `yaml:"search" json:"search"`
	Autocomplete AutocompleteSettings `yaml:"autocomplete" json:"autocomplete"`
	Jobs         JobSettings          `yaml:"jobs" json:"jobs"`
	RateLimit    RateLimitSettings    `yaml:"rate_limit" json:"rate_limit"`
	Server       ServerSettings       `yaml:"server" json:"server"`
}

// StorageSettings configures the SQLite storage substrate.
type StorageSettings struct {
	DataDir        string `yaml:"data_dir" json:"data_dir"`
	DBName         string `yaml:"db_name" json:"db_name"`
	JournalMode    string `yaml:"journal_mode" json:"journal_mode"`
	BusyTimeoutMs  int    `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`
	CacheSizeMB    int    `yaml:"cache_size_mb" json:"cache_size_mb"`
}

// ShardSettings configures the shard planner.
type ShardSettings struct {
	// DedicatedThreshold is the minimum doc count for a subreddit to get its
	// own dedicated shard; below it, the subreddit is routed to the grouped
	// shard.
	DedicatedThreshold int `yaml:"dedicated_threshold" json:"dedicated_threshold"`
	// GroupedShardName is the catch-all shard id for subreddits under the
	// dedicated threshold.
	GroupedShardName string `yaml:"grouped_shard_name" json:"grouped_shard_name"`
}

// BM25Settings configures the Okapi BM25 scorer.
type BM25Settings struct {
	K1 float64 `yaml:"k1" json:"k1"`
	B  float64 `yaml:"b" json:"b"`
}

// TFIDFSettings configures the TF-IDF index builder. MaxDocsPerShard lets an
// orchestrator skip building TF-IDF for shards too large to keep a dense
// matrix in memory.
type TFIDFSettings struct {
	MaxDocsPerShard int `yaml:"max_docs_per_shard" json:"max_docs_per_shard"`
}

// VectorSettings configures the dense vector index and its encoder.
type VectorSettings struct {
	ModelName           string `yaml:"model_name" json:"model_name"`
	EmbeddingDim        int    `yaml:"embedding_dim" json:"embedding_dim"`
	EncodeBatchSize     int    `yaml:"encode_batch_size" json:"encode_batch_size"`
	// ApproximateThreshold is the per-shard vector count above which the
	// searcher additionally builds an in-memory HNSW graph instead of
	// relying solely on the flat inner-product scan.
	ApproximateThreshold int `yaml:"approximate_threshold" json:"approximate_threshold"`
}

// SearchSettings configures hybrid fusion and result pagination.
type SearchSettings struct {
	// BM25Weight, TFIDFWeight, VectorWeight are the linear-combination
	// fusion weights; they should sum to 1.0.
	BM25Weight   float64 `yaml:"bm25_weight" json:"bm25_weight"`
	TFIDFWeight  float64 `yaml:"tfidf_weight" json:"tfidf_weight"`
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`

	// RRFConstant is the reciprocal-rank-fusion smoothing constant k.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	TopKPerIndex       int `yaml:"top_k_per_index" json:"top_k_per_index"`
	DefaultPageSize    int `yaml:"default_page_size" json:"default_page_size"`
	MaxPageSize        int `yaml:"max_page_size" json:"max_page_size"`
	MaxQueryLength     int `yaml:"max_query_length" json:"max_query_length"`
	MaxConcurrentShards int `yaml:"max_concurrent_shards" json:"max_concurrent_shards"`
}

// AutocompleteSettings configures the prefix trie and its recency boost.
type AutocompleteSettings struct {
	MaxSuggestions    int     `yaml:"max_suggestions" json:"max_suggestions"`
	RecencyDays       int     `yaml:"recency_days" json:"recency_days"`
	RecencyMultiplier float64 `yaml:"recency_multiplier" json:"recency_multiplier"`
}

// JobSettings configures the durable job queue and worker pool.
type JobSettings struct {
	MaxRetries         int    `yaml:"max_retries" json:"max_retries"`
	PollInterval       string `yaml:"poll_interval" json:"poll_interval"`
	WorkerCount        int    `yaml:"worker_count" json:"worker_count"`
	StaleRunningMaxAge string `yaml:"stale_running_max_age" json:"stale_running_max_age"`
	CompletedRetention string `yaml:"completed_retention" json:"completed_retention"`
}

// PollIntervalDuration parses PollInterval, falling back to 1s if it
// is empty or malformed.
func (j JobSettings) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(j.PollInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// StaleRunningMaxAgeDuration parses StaleRunningMaxAge, falling back to
// 10m if it is empty or malformed.
func (j JobSettings) StaleRunningMaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(j.StaleRunningMaxAge)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// RateLimitSettings configures the in-memory per-client token bucket
// guarding the query-serving surface.
type RateLimitSettings struct {
	Capacity       float64 `yaml:"capacity" json:"capacity"`
	RefillPerSec   float64 `yaml:"refill_per_sec" json:"refill_per_sec"`
	StaleAfter     string  `yaml:"stale_after" json:"stale_after"`
}

// ServerSettings configures the MCP tool server transport and log level.
type ServerSettings struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// defaultDataDir returns ~/.forumsearch/data, falling back to a temp
// directory if the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".forumsearch", "data")
	}
	return filepath.Join(home, ".forumsearch", "data")
}

// New returns Settings populated with sensible defaults, grounded in the
// reference implementation's parameter choices.
func New() *Settings {
	return &Settings{
		Version: 1,
		Storage: StorageSettings{
			DataDir:       defaultDataDir(),
			DBName:        "forumsearch.db",
			JournalMode:   "WAL",
			BusyTimeoutMs: 5000,
			CacheSizeMB:   64,
		},
		Shard: ShardSettings{
			DedicatedThreshold: 5000,
			GroupedShardName:   "shard_misc",
		},
		BM25: BM25Settings{
			K1: 1.2,
			B:  0.75,
		},
		TFIDF: TFIDFSettings{
			MaxDocsPerShard: 200000,
		},
		Vector: VectorSettings{
			ModelName:            "all-MiniLM-L6-v2",
			EmbeddingDim:         384,
			EncodeBatchSize:      64,
			ApproximateThreshold: 50000,
		},
		Search: SearchSettings{
			BM25Weight:          0.7,
			TFIDFWeight:         0.15,
			VectorWeight:        0.15,
			RRFConstant:         60,
			TopKPerIndex:        100,
			DefaultPageSize:     20,
			MaxPageSize:         100,
			MaxQueryLength:      500,
			MaxConcurrentShards: 8,
		},
		Autocomplete: AutocompleteSettings{
			MaxSuggestions:    10,
			RecencyDays:       30,
			RecencyMultiplier: 1.5,
		},
		Jobs: JobSettings{
			MaxRetries:         2,
			PollInterval:       "1s",
			WorkerCount:        runtime.NumCPU(),
			StaleRunningMaxAge: "10m",
			CompletedRetention: "72h",
		},
		RateLimit: RateLimitSettings{
			Capacity:     60,
			RefillPerSec: 1,
			StaleAfter:   "10m",
		},
		Server: ServerSettings{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// configFileName is the project-local override file.
const configFileName = "forumsearch.yaml"

// GetUserConfigPath returns the path to the user/global configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "forumsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "forumsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "forumsearch", "config.yaml")
}

// Load builds a Settings value in order of increasing precedence:
//  1. hardcoded defaults
//  2. user/global config (~/.config/forumsearch/config.yaml)
//  3. project config (forumsearch.yaml in dir)
//  4. FORUMSEARCH_* environment variables
//
// The result is validated before being returned.
func Load(dir string) (*Settings, error) {
	s := New()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := s.mergeYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	projectPath := filepath.Join(dir, configFileName)
	if fileExists(projectPath) {
		if err := s.mergeYAML(projectPath); err != nil {
			return nil, fmt.Errorf("failed to load project config: %w", err)
		}
	}

	s.applyEnvOverrides()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// mergeYAML reads path and merges its non-zero fields into s.
func (s *Settings) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	s.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto s.
func (s *Settings) mergeWith(other *Settings) {
	if other.Version != 0 {
		s.Version = other.Version
	}

	if other.Storage.DataDir != "" {
		s.Storage.DataDir = other.Storage.DataDir
	}
	if other.Storage.DBName != "" {
		s.Storage.DBName = other.Storage.DBName
	}
	if other.Storage.JournalMode != "" {
		s.Storage.JournalMode = other.Storage.JournalMode
	}
	if other.Storage.BusyTimeoutMs != 0 {
		s.Storage.BusyTimeoutMs = other.Storage.BusyTimeoutMs
	}
	if other.Storage.CacheSizeMB != 0 {
		s.Storage.CacheSizeMB = other.Storage.CacheSizeMB
	}

	if other.Shard.DedicatedThreshold != 0 {
		s.Shard.DedicatedThreshold = other.Shard.DedicatedThreshold
	}
	if other.Shard.GroupedShardName != "" {
		s.Shard.GroupedShardName = other.Shard.GroupedShardName
	}

	if other.BM25.K1 != 0 {
		s.BM25.K1 = other.BM25.K1
	}
	if other.BM25.B != 0 {
		s.BM25.B = other.BM25.B
	}

	if other.TFIDF.MaxDocsPerShard != 0 {
		s.TFIDF.MaxDocsPerShard = other.TFIDF.MaxDocsPerShard
	}

	if other.Vector.ModelName != "" {
		s.Vector.ModelName = other.Vector.ModelName
	}
	if other.Vector.EmbeddingDim != 0 {
		s.Vector.EmbeddingDim = other.Vector.EmbeddingDim
	}
	if other.Vector.EncodeBatchSize != 0 {
		s.Vector.EncodeBatchSize = other.Vector.EncodeBatchSize
	}
	if other.Vector.ApproximateThreshold != 0 {
		s.Vector.ApproximateThreshold = other.Vector.ApproximateThreshold
	}

	if other.Search.BM25Weight != 0 {
		s.Search.BM25Weight = other.Search.BM25Weight
	}
	if other.Search.TFIDFWeight != 0 {
		s.Search.TFIDFWeight = other.Search.TFIDFWeight
	}
	if other.Search.VectorWeight != 0 {
		s.Search.VectorWeight = other.Search.VectorWeight
	}
	if other.Search.RRFConstant != 0 {
		s.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.TopKPerIndex != 0 {
		s.Search.TopKPerIndex = other.Search.TopKPerIndex
	}
	if other.Search.DefaultPageSize != 0 {
		s.Search.DefaultPageSize = other.Search.DefaultPageSize
	}
	if other.Search.MaxPageSize != 0 {
		s.Search.MaxPageSize = other.Search.MaxPageSize
	}
	if other.Search.MaxQueryLength != 0 {
		s.Search.MaxQueryLength = other.Search.MaxQueryLength
	}
	if other.Search.MaxConcurrentShards != 0 {
		s.Search.MaxConcurrentShards = other.Search.MaxConcurrentShards
	}

	if other.Autocomplete.MaxSuggestions != 0 {
		s.Autocomplete.MaxSuggestions = other.Autocomplete.MaxSuggestions
	}
	if other.Autocomplete.RecencyDays != 0 {
		s.Autocomplete.RecencyDays = other.Autocomplete.RecencyDays
	}
	if other.Autocomplete.RecencyMultiplier != 0 {
		s.Autocomplete.RecencyMultiplier = other.Autocomplete.RecencyMultiplier
	}

	if other.Jobs.MaxRetries != 0 {
		s.Jobs.MaxRetries = other.Jobs.MaxRetries
	}
	if other.Jobs.PollInterval != "" {
		s.Jobs.PollInterval = other.Jobs.PollInterval
	}
	if other.Jobs.WorkerCount != 0 {
		s.Jobs.WorkerCount = other.Jobs.WorkerCount
	}
	if other.Jobs.StaleRunningMaxAge != "" {
		s.Jobs.StaleRunningMaxAge = other.Jobs.StaleRunningMaxAge
	}
	if other.Jobs.CompletedRetention != "" {
		s.Jobs.CompletedRetention = other.Jobs.CompletedRetention
	}

	if other.RateLimit.Capacity != 0 {
		s.RateLimit.Capacity = other.RateLimit.Capacity
	}
	if other.RateLimit.RefillPerSec != 0 {
		s.RateLimit.RefillPerSec = other.RateLimit.RefillPerSec
	}
	if other.RateLimit.StaleAfter != "" {
		s.RateLimit.StaleAfter = other.RateLimit.StaleAfter
	}

	if other.Server.Transport != "" {
		s.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		s.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies FORUMSEARCH_* environment variable overrides,
// the highest-precedence configuration layer.
func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("FORUMSEARCH_DATA_DIR"); v != "" {
		s.Storage.DataDir = v
	}
	if v := os.Getenv("FORUMSEARCH_BM25_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			s.Search.BM25Weight = w
		}
	}
	if v := os.Getenv("FORUMSEARCH_TFIDF_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			s.Search.TFIDFWeight = w
		}
	}
	if v := os.Getenv("FORUMSEARCH_VECTOR_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			s.Search.VectorWeight = w
		}
	}
	if v := os.Getenv("FORUMSEARCH_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			s.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("FORUMSEARCH_VECTOR_MODEL"); v != "" {
		s.Vector.ModelName = v
	}
	if v := os.Getenv("FORUMSEARCH_LOG_LEVEL"); v != "" {
		s.Server.LogLevel = v
	}
	if v := os.Getenv("FORUMSEARCH_TRANSPORT"); v != "" {
		s.Server.Transport = v
	}
	if v := os.Getenv("FORUMSEARCH_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Jobs.WorkerCount = n
		}
	}
}

// Validate checks invariants on the final, merged configuration.
func (s *Settings) Validate() error {
	sum := s.Search.BM25Weight + s.Search.TFIDFWeight + s.Search.VectorWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("search weights must sum to 1.0, got %.3f", sum)
	}
	for name, w := range map[string]float64{
		"bm25_weight":   s.Search.BM25Weight,
		"tfidf_weight":  s.Search.TFIDFWeight,
		"vector_weight": s.Search.VectorWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, w)
		}
	}

	if s.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", s.Search.RRFConstant)
	}
	if s.Search.MaxPageSize <= 0 || s.Search.DefaultPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if s.Search.DefaultPageSize > s.Search.MaxPageSize {
		return fmt.Errorf("default_page_size (%d) must not exceed max_page_size (%d)", s.Search.DefaultPageSize, s.Search.MaxPageSize)
	}
	if s.Search.MaxQueryLength <= 0 {
		return fmt.Errorf("max_query_length must be positive, got %d", s.Search.MaxQueryLength)
	}

	if s.Shard.DedicatedThreshold < 0 {
		return fmt.Errorf("shard.dedicated_threshold must be non-negative, got %d", s.Shard.DedicatedThreshold)
	}
	if strings.TrimSpace(s.Shard.GroupedShardName) == "" {
		return fmt.Errorf("shard.grouped_shard_name must not be empty")
	}

	if s.BM25.K1 < 0 {
		return fmt.Errorf("bm25.k1 must be non-negative, got %f", s.BM25.K1)
	}
	if s.BM25.B < 0 || s.BM25.B > 1 {
		return fmt.Errorf("bm25.b must be between 0 and 1, got %f", s.BM25.B)
	}

	if s.Vector.EmbeddingDim <= 0 {
		return fmt.Errorf("vector.embedding_dim must be positive, got %d", s.Vector.EmbeddingDim)
	}
	if s.Vector.EncodeBatchSize <= 0 {
		return fmt.Errorf("vector.encode_batch_size must be positive, got %d", s.Vector.EncodeBatchSize)
	}

	if s.Jobs.MaxRetries < 0 {
		return fmt.Errorf("jobs.max_retries must be non-negative, got %d", s.Jobs.MaxRetries)
	}
	if s.Jobs.WorkerCount <= 0 {
		return fmt.Errorf("jobs.worker_count must be positive, got %d", s.Jobs.WorkerCount)
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(s.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", s.Server.Transport)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", s.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, used by `forumsearch
// init` to materialize a starting forumsearch.yaml.
func (s *Settings) WriteYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DBPath returns the absolute path to the SQLite database file.
func (s *Settings) DBPath() string {
	return filepath.Join(s.Storage.DataDir, s.Storage.DBName)
}

// IndexDir returns the directory an index file of the given type and shard
// lives under, e.g. data/indexes/bm25/shard_python/.
func (s *Settings) IndexDir(indexType, shardID string) string {
	return filepath.Join(s.Storage.DataDir, "indexes", indexType, shardID)
}

// IndexFile returns the absolute path to a specific index file within a
// version directory, e.g. data/indexes/bm25/shard_python/v3/index.bin.
func (s *Settings) IndexFile(indexType, shardID string, version int, filename string) string {
	return filepath.Join(s.IndexDir(indexType, shardID), "v"+strconv.Itoa(version), filename)
}

// AutocompleteDir returns the directory autocomplete trie files live under.
func (s *Settings) AutocompleteDir() string {
	return filepath.Join(s.Storage.DataDir, "indexes", "autocomplete")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
