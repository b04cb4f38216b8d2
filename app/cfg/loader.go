package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./storyvec.db" description:"Path to the SQLite database file"`

	// Source catalog configuration
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source catalog files"`

	// Ingestion configuration
	BatchSize         int `long:"batch-size" env:"BATCH_SIZE" default:"10" description:"Number of items processed per embedding batch"`
	WorkerCount       int `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of concurrent batch workers"`
	MaxBatchRetries   int `long:"max-batch-retries" env:"MAX_BATCH_RETRIES" default:"3" description:"Maximum attempts per batch before marking its items failed"`
	MinContentLength  int `long:"min-content-length" env:"MIN_CONTENT_LENGTH" default:"200" description:"Content length below which article extraction is attempted"`
	MinFallbackLength int `long:"min-fallback-length" env:"MIN_FALLBACK_LENGTH" default:"50" description:"Minimum length for metadata fallback content to be accepted"`
	EnrichTimeout     int `long:"enrich-timeout" env:"ENRICH_TIMEOUT" default:"10" description:"Article fetch timeout in seconds"`

	// Embedding configuration
	EmbeddingHost      string `long:"embedding-host" env:"EMBEDDING_HOST" default:"https://api.openai.com/v1" description:"Base URL of the OpenAI-compatible embedding API"`
	EmbeddingModel     string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"text-embedding-3-small" description:"Embedding model name"`
	EmbeddingAPIKey    string `long:"embedding-api-key" env:"EMBEDDING_API_KEY" description:"API key for the embedding provider"`
	MaxEmbedChars      int    `long:"max-embed-chars" env:"MAX_EMBED_CHARS" default:"8000" description:"Hard character ceiling for embedding input texts"`
	CacheTTLDays       int    `long:"cache-ttl-days" env:"CACHE_TTL_DAYS" default:"30" description:"Embedding cache entry lifetime in days"`
	CacheSweepInterval int    `long:"cache-sweep-interval" env:"CACHE_SWEEP_INTERVAL" default:"3600" description:"Interval between cache expiry sweeps in seconds"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"900" description:"Interval between scheduled ingestion runs in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Storyvec/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses configuration from environment variables and command-line
// flags. The returned value is passed explicitly into every constructor that
// needs it; there is no package-level accessor. Returns (nil, nil) when help
// was requested.
func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		SourcesDir:         raw.SourcesDir,
		BatchSize:          raw.BatchSize,
		WorkerCount:        raw.WorkerCount,
		MaxBatchRetries:    raw.MaxBatchRetries,
		MinContentLength:   raw.MinContentLength,
		MinFallbackLength:  raw.MinFallbackLength,
		EnrichTimeout:      raw.EnrichTimeout,
		EmbeddingHost:      raw.EmbeddingHost,
		EmbeddingModel:     raw.EmbeddingModel,
		EmbeddingAPIKey:    raw.EmbeddingAPIKey,
		MaxEmbedChars:      raw.MaxEmbedChars,
		CacheTTLDays:       raw.CacheTTLDays,
		CacheSweepInterval: raw.CacheSweepInterval,
		Port:               raw.Port,
		SchedulerInterval:  raw.SchedulerInterval,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
