package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/CTAG07/ngramlm/pkg/corpus"
	"github.com/CTAG07/ngramlm/pkg/ngram"
	"github.com/natefinch/atomic"
)

const defaultMaxGenerateWords = 500

// ServerConfig holds the settings for the HTTP server and its storage.
type ServerConfig struct {
	ApiAddr      string `json:"api_addr"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`
}

// ModelConfig describes the model the server builds from a stored corpus.
type ModelConfig struct {
	Corpus           string  `json:"corpus"`
	Order            int     `json:"order"`
	Estimator        string  `json:"estimator"` // good_turing, lidstone, laplace, ele or mle
	Gamma            float64 `json:"gamma"`     // lidstone only
	Bins             int     `json:"bins"`      // 0 lets the estimator decide
	PadLeft          bool    `json:"pad_left"`
	PadRight         bool    `json:"pad_right"`
	Weighting        string  `json:"weighting"` // constant or katz
	MaxGenerateWords int     `json:"max_generate_words"`
}

// CorpusConfig controls how raw text is tokenized and ingested.
type CorpusConfig struct {
	SplitRegex        string  `json:"split_regex"`
	EOSRegex          string  `json:"eos_regex"`
	KeepEOS           bool    `json:"keep_eos"`
	Lowercase         bool    `json:"lowercase"`
	Dedup             bool    `json:"dedup"`
	DedupExpected     uint    `json:"dedup_expected_sentences"`
	DedupFalsePosRate float64 `json:"dedup_false_positive_rate"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server *ServerConfig `json:"server_config"`
	Model  *ModelConfig  `json:"model_config"`
	Corpus *CorpusConfig `json:"corpus_config"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			ApiAddr:      ":7380",
			LogLevel:     "info",
			DataDir:      "./data",
			DatabasePath: "./data/ngramlm.db?_journal_mode=WAL&_busy_timeout=5000",
		},
		Model: &ModelConfig{
			Corpus:           "default",
			Order:            3,
			Estimator:        "good_turing",
			PadLeft:          true,
			PadRight:         false,
			Weighting:        "constant",
			MaxGenerateWords: defaultMaxGenerateWords,
		},
		Corpus: &CorpusConfig{
			SplitRegex:        `[\w']+|[.,!?;]`,
			EOSRegex:          `^[.!?]$`,
			Dedup:             false,
			DedupExpected:     100000,
			DedupFalsePosRate: 0.001,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err = writeConfig(path, config); err != nil {
				// The server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

func writeConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// Validate checks the sections that can be rejected before a rebuild.
func (c *Config) Validate() error {
	if c.Server == nil || c.Model == nil || c.Corpus == nil {
		return fmt.Errorf("server_config, model_config and corpus_config are required")
	}
	if c.Model.Order < 1 {
		return fmt.Errorf("model order must be at least 1, got %d", c.Model.Order)
	}
	if _, err := c.Model.estimator(); err != nil {
		return err
	}
	if _, err := ngram.ParseWeighting(c.Model.Weighting); err != nil {
		return err
	}
	for _, expr := range []string{c.Corpus.SplitRegex, c.Corpus.EOSRegex} {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("invalid tokenizer regex: %w", err)
		}
	}
	return nil
}

// estimator maps the configured name to an ngram.Estimator.
func (mc *ModelConfig) estimator() (ngram.Estimator, error) {
	switch strings.ToLower(mc.Estimator) {
	case "", "good_turing", "sgt":
		return ngram.SimpleGoodTuring{Bins: mc.Bins}, nil
	case "lidstone":
		return ngram.Lidstone{Gamma: mc.Gamma, Bins: mc.Bins}, nil
	case "laplace":
		return ngram.Laplace(mc.Bins), nil
	case "ele":
		return ngram.ELE(mc.Bins), nil
	case "mle":
		return ngram.MLE{}, nil
	default:
		return nil, fmt.Errorf("unknown estimator %q", mc.Estimator)
	}
}

// options translates the model config into ngram options.
func (mc *ModelConfig) options(logger *slog.Logger) ([]ngram.Option, error) {
	est, err := mc.estimator()
	if err != nil {
		return nil, err
	}
	weighting, err := ngram.ParseWeighting(mc.Weighting)
	if err != nil {
		return nil, err
	}
	return []ngram.Option{
		ngram.WithPadLeft(mc.PadLeft),
		ngram.WithPadRight(mc.PadRight),
		ngram.WithEstimator(est),
		ngram.WithBackoffWeighting(weighting),
		ngram.WithLogger(logger),
	}, nil
}

// tokenizer builds the corpus tokenizer described by the config.
func (cc *CorpusConfig) tokenizer() *corpus.DefaultTokenizer {
	var opts []corpus.Option
	if cc.SplitRegex != "" {
		opts = append(opts, corpus.WithSplitRegex(cc.SplitRegex))
	}
	if cc.EOSRegex != "" {
		opts = append(opts, corpus.WithEOSRegex(cc.EOSRegex))
	}
	opts = append(opts, corpus.WithKeepEOS(cc.KeepEOS), corpus.WithLowercase(cc.Lowercase))
	return corpus.NewDefaultTokenizer(opts...)
}

func (cc *CorpusConfig) ingestOptions() []corpus.IngestOption {
	if !cc.Dedup {
		return nil
	}
	return []corpus.IngestOption{corpus.WithDedup(cc.DedupExpected, cc.DedupFalsePosRate)}
}

// ConfigManager handles thread-safe access to the configuration and keeps
// the file on disk in sync with it.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{config: cfg, configPath: path}, nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

// UpdateModel validates and stores a new model config, then saves the whole
// configuration to disk.
func (cm *ConfigManager) UpdateModel(mc ModelConfig) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	next := *cm.config
	next.Model = &mc
	if err := next.Validate(); err != nil {
		return err
	}
	if err := writeConfig(cm.configPath, &next); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	*cm.config = next
	return nil
}
