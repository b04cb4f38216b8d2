package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Source catalog configuration
	SourcesDir string

	// Ingestion configuration
	BatchSize         int
	WorkerCount       int
	MaxBatchRetries   int
	MinContentLength  int
	MinFallbackLength int
	EnrichTimeout     int // seconds

	// Embedding configuration
	EmbeddingHost      string
	EmbeddingModel     string
	EmbeddingAPIKey    string
	MaxEmbedChars      int
	CacheTTLDays       int
	CacheSweepInterval int // seconds

	// Application configuration
	Port              string
	SchedulerInterval int // seconds
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
