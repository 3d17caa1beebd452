package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"consultai/utils/log"
)

const (
	EnvConfigPath = "CONSULTAI_CONFIG"
	EnvAddr       = "CONSULTAI_ADDR"
	EnvRedisAddr  = "CONSULTAI_REDIS_ADDR"
	EnvDBDSN      = "CONSULTAI_DB_DSN"

	DefaultConfigPath = "config.yaml"
)

type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Download  DownloadConfig  `yaml:"download"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	MCP       MCPConfig       `yaml:"mcp"`
	Log       log.Options     `yaml:"log"`
}

type PathsConfig struct {
	ReportDir    string `yaml:"report_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	CacheDir     string `yaml:"cache_dir"`
	CleanedTexts string `yaml:"cleaned_texts"`
	UploadDir    string `yaml:"upload_dir"`
	Workbook     string `yaml:"workbook"`
}

func (p PathsConfig) MetadataCSV() string {
	return filepath.Join(p.ProcessedDir, "metadata.csv")
}

func (p PathsConfig) AnalysisCSV() string {
	return filepath.Join(p.ProcessedDir, "analysis_results.csv")
}

type DownloadConfig struct {
	Timeout        time.Duration  `yaml:"timeout"`
	MaxRetries     int            `yaml:"max_retries"`
	InitialBackoff time.Duration  `yaml:"initial_backoff"`
	MaxBackoff     time.Duration  `yaml:"max_backoff"`
	Reports        []ReportSource `yaml:"reports"`
}

// ReportSource is one catalog entry. The saved file is named
// Firm_Year_Industry.pdf.
type ReportSource struct {
	Firm     string `yaml:"firm"`
	Year     string `yaml:"year"`
	Industry string `yaml:"industry"`
	URL      string `yaml:"url"`
}

type ChunkConfig struct {
	MaxWords int `yaml:"max_words"`
}

type AnalysisConfig struct {
	MaxFeatures   int     `yaml:"max_features"`
	TopKeywords   int     `yaml:"top_keywords"`
	NumTopics     int     `yaml:"num_topics"`
	LDAIterations int     `yaml:"lda_iterations"`
	TopicMinProb  float64 `yaml:"topic_min_prob"`
	TopicTerms    int     `yaml:"topic_terms"`
}

type SentimentConfig struct {
	PositiveThreshold float64 `yaml:"positive_threshold"`
	NegativeThreshold float64 `yaml:"negative_threshold"`
}

type DBConfig struct {
	// Dialect is sqlite or mysql.
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
}

type RedisConfig struct {
	// Addr empty disables the score cache and the run lock.
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	ScoreTTL time.Duration `yaml:"score_ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type DashboardConfig struct {
	Addr            string        `yaml:"addr"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	MaxUploadMB     int64         `yaml:"max_upload_mb"`
}

type MCPConfig struct {
	Addr    string `yaml:"addr"`
	BaseURL string `yaml:"base_url"`
}

// Default is the on-disk layout shared by every command.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			ReportDir:    "data/reports",
			ProcessedDir: "data/processed",
			CacheDir:     "cache",
			CleanedTexts: "data/cleaned_texts.csv",
			UploadDir:    "data/uploads",
			Workbook:     "data/processed/analysis_results.xlsx",
		},
		Download: DownloadConfig{
			Timeout:        60 * time.Second,
			MaxRetries:     3,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
			Reports:        DefaultReports(),
		},
		Chunk: ChunkConfig{MaxWords: 1000},
		Analysis: AnalysisConfig{
			MaxFeatures:   1000,
			TopKeywords:   5,
			NumTopics:     5,
			LDAIterations: 100,
			TopicMinProb:  0.01,
			TopicTerms:    8,
		},
		Sentiment: SentimentConfig{
			PositiveThreshold: 0.05,
			NegativeThreshold: 0,
		},
		DB: DBConfig{
			Dialect: "sqlite",
			DSN:     "data/consultai.db",
		},
		Redis: RedisConfig{
			ScoreTTL: 24 * time.Hour,
			LockTTL:  30 * time.Second,
		},
		Dashboard: DashboardConfig{
			Addr:            ":8501",
			RefreshInterval: time.Minute,
			MaxUploadMB:     64,
		},
		MCP: MCPConfig{
			Addr:    ":8080",
			BaseURL: "http://localhost:8080",
		},
	}
}

// DefaultReports is the 2025 AI in financial services collection.
func DefaultReports() []ReportSource {
	return []ReportSource{
		{
			Firm: "McKinsey", Year: "2025", Industry: "State",
			URL: "https://www.mckinsey.com/~/media/mckinsey/business%20functions/quantumblack/our%20insights/the%20state%20of%20ai/2025/the-state-of-ai-how-organizations-are-rewiring-to-capture-value_final.pdf",
		},
		{
			Firm: "BCG", Year: "2025", Industry: "Reckoning",
			URL: "https://web-assets.bcg.com/3e/6f/9dfa63434eb7a00e1cf1cdcb3754/for-banks-the-ai-reckoning-is-here-may-2025.pdf",
		},
		{
			Firm: "KPMG", Year: "2025", Industry: "Insights",
			URL: "https://assets.kpmg.com/content/dam/kpmg/ae/pdf-2025/03/global-tech-report-financial-services-insights.pdf",
		},
		{
			Firm: "EY", Year: "2025", Industry: "FPA",
			URL: "https://www.ey.com/content/dam/ey-unified-site/ey-com/en-gl/services/consulting/documents/ey-gl-how-ai-is-transforming-fpa-06-2025.pdf",
		},
		{
			Firm: "McKinsey", Year: "2025", Industry: "Bank",
			URL: "https://www.mckinsey.com/~/media/mckinsey/industries/financial%20services/our%20insights/building%20the%20ai%20bank%20of%20the%20future/building-the-ai-bank-of-the-future.pdf",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults are returned. Env overrides are applied last.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// PathFromEnv returns CONSULTAI_CONFIG or the default file name.
func PathFromEnv() string {
	if v := os.Getenv(EnvConfigPath); v != "" {
		return v
	}
	return DefaultConfigPath
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Dashboard.Addr = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv(EnvDBDSN); v != "" {
		cfg.DB.DSN = v
	}
}

var (
	ErrInvalidChunkSize = errors.New("chunk.max_words must be positive")
	ErrInvalidDialect   = errors.New("db.dialect must be sqlite or mysql")
	ErrInvalidTopics    = errors.New("analysis.num_topics must be positive")
)

func (c Config) Validate() error {
	if c.Chunk.MaxWords <= 0 {
		return ErrInvalidChunkSize
	}
	if c.DB.Dialect != "sqlite" && c.DB.Dialect != "mysql" {
		return ErrInvalidDialect
	}
	if c.Analysis.NumTopics <= 0 {
		return ErrInvalidTopics
	}
	return nil
}
