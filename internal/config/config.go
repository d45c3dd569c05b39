package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job finder service.
type Config struct {
	Server   ServerConfig
	Ollama   OllamaConfig
	Scraper  ScraperConfig
	Analyzer AnalyzerConfig
	Output   OutputConfig
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
}

// OllamaConfig points the analyzer at an Ollama-compatible endpoint.
type OllamaConfig struct {
	APIURL         string        // expanded from env (OLLAMA_API) by Load
	Model          string        // e.g. "deepseek-r1:7b"
	Timeout        time.Duration // total per-request budget
	ConnectTimeout time.Duration
}

// ScraperConfig tunes the source adapters.
type ScraperConfig struct {
	MaxResults        int           // per-source result cap
	RequestsPerSecond float64       // courtesy limit per host
	Burst             int
	SourceDelay       time.Duration // pause after the indeed phase
	CityFile          string        // rozee city table, optional
}

// AnalyzerConfig tunes relevance scoring.
type AnalyzerConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Concurrency int64
	BatchSize   int
	BatchDelay  time.Duration
}

// OutputConfig controls where search artifacts are written.
type OutputConfig struct {
	Dir string
	CSV bool // also dump per-source CSVs
}

const defaultModel = "deepseek-r1:7b"

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Server   rawServerConfig   `yaml:"server"`
	Ollama   rawOllamaConfig   `yaml:"ollama"`
	Scraper  rawScraperConfig  `yaml:"scraper"`
	Analyzer rawAnalyzerConfig `yaml:"analyzer"`
	Output   rawOutputConfig   `yaml:"output"`
}

type rawServerConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type rawOllamaConfig struct {
	APIURL         string `yaml:"api_url"`
	Model          string `yaml:"model"`
	Timeout        string `yaml:"timeout"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

type rawScraperConfig struct {
	MaxResults        int     `yaml:"max_results"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	SourceDelay       string  `yaml:"source_delay"`
	CityFile          string  `yaml:"city_file"`
}

type rawAnalyzerConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	RetryDelay  string `yaml:"retry_delay"`
	Concurrency int64  `yaml:"concurrency"`
	BatchSize   int    `yaml:"batch_size"`
	BatchDelay  string `yaml:"batch_delay"`
}

type rawOutputConfig struct {
	Dir string `yaml:"dir"`
	CSV *bool  `yaml:"csv"`
}

// Load reads the YAML config at path, expands environment variables, applies
// defaults, validates, and returns the result. A .env file next to the working
// directory is loaded first when present so references like ${OLLAMA_API}
// resolve without exporting.
func Load(path string) (*Config, error) {
	// best effort; absence is the common case
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:      raw.Server.ListenAddr,
			ShutdownTimeout: 10 * time.Second,
		},
		Ollama: OllamaConfig{
			APIURL:         raw.Ollama.APIURL,
			Model:          raw.Ollama.Model,
			Timeout:        80 * time.Second,
			ConnectTimeout: 30 * time.Second,
		},
		Scraper: ScraperConfig{
			MaxResults:        raw.Scraper.MaxResults,
			RequestsPerSecond: raw.Scraper.RequestsPerSecond,
			Burst:             raw.Scraper.Burst,
			SourceDelay:       5 * time.Second,
			CityFile:          raw.Scraper.CityFile,
		},
		Analyzer: AnalyzerConfig{
			MaxAttempts: raw.Analyzer.MaxAttempts,
			RetryDelay:  5 * time.Second,
			Concurrency: raw.Analyzer.Concurrency,
			BatchSize:   raw.Analyzer.BatchSize,
			BatchDelay:  5 * time.Second,
		},
		Output: OutputConfig{
			Dir: raw.Output.Dir,
			CSV: true,
		},
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8000"
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = defaultModel
	}
	if cfg.Scraper.MaxResults == 0 {
		cfg.Scraper.MaxResults = 15
	}
	if cfg.Scraper.RequestsPerSecond == 0 {
		cfg.Scraper.RequestsPerSecond = 1
	}
	if cfg.Scraper.Burst == 0 {
		cfg.Scraper.Burst = 2
	}
	if cfg.Analyzer.MaxAttempts == 0 {
		cfg.Analyzer.MaxAttempts = 3
	}
	if cfg.Analyzer.Concurrency == 0 {
		cfg.Analyzer.Concurrency = 3
	}
	if cfg.Analyzer.BatchSize == 0 {
		cfg.Analyzer.BatchSize = 5
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if raw.Output.CSV != nil {
		cfg.Output.CSV = *raw.Output.CSV
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.shutdown_timeout", raw.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"ollama.timeout", raw.Ollama.Timeout, &cfg.Ollama.Timeout},
		{"ollama.connect_timeout", raw.Ollama.ConnectTimeout, &cfg.Ollama.ConnectTimeout},
		{"scraper.source_delay", raw.Scraper.SourceDelay, &cfg.Scraper.SourceDelay},
		{"analyzer.retry_delay", raw.Analyzer.RetryDelay, &cfg.Analyzer.RetryDelay},
		{"analyzer.batch_delay", raw.Analyzer.BatchDelay, &cfg.Analyzer.BatchDelay},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", d.name, d.raw, err)
		}
		*d.dst = v
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Ollama.APIURL == "" {
		return fmt.Errorf("ollama.api_url is required (set it or the OLLAMA_API env var)")
	}
	if cfg.Scraper.MaxResults < 0 {
		return fmt.Errorf("scraper.max_results must not be negative, got %d", cfg.Scraper.MaxResults)
	}
	if cfg.Scraper.RequestsPerSecond <= 0 {
		return fmt.Errorf("scraper.requests_per_second must be positive, got %v", cfg.Scraper.RequestsPerSecond)
	}
	if cfg.Analyzer.MaxAttempts < 1 {
		return fmt.Errorf("analyzer.max_attempts must be at least 1, got %d", cfg.Analyzer.MaxAttempts)
	}
	if cfg.Analyzer.Concurrency < 1 {
		return fmt.Errorf("analyzer.concurrency must be at least 1, got %d", cfg.Analyzer.Concurrency)
	}
	if cfg.Analyzer.BatchSize < 1 {
		return fmt.Errorf("analyzer.batch_size must be at least 1, got %d", cfg.Analyzer.BatchSize)
	}
	return nil
}
