package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llmgen/internal/generate"
)

// Config holds runtime parameters for the driver.
// Zero values mean "unspecified" and are replaced by defaults when the
// decoding configuration is built (see Decoding) or by flag defaults in the
// CLI layer.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	Model        string `json:"model" yaml:"model" toml:"model"`
	Backend      string `json:"backend" yaml:"backend" toml:"backend"`
	RunnerURL    string `json:"runner_url" yaml:"runner_url" toml:"runner_url"`
	RunnerAPIKey string `json:"runner_api_key" yaml:"runner_api_key" toml:"runner_api_key"`

	Input     string `json:"input" yaml:"input" toml:"input"`
	Output    string `json:"output" yaml:"output" toml:"output"`
	SourceKey string `json:"source_key" yaml:"source_key" toml:"source_key"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	AllocConf string `json:"alloc_conf" yaml:"alloc_conf" toml:"alloc_conf"`

	LlamaCtx     int `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads int `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`

	BatchSize          int     `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	MaxNewTokens       int     `json:"max_new_tokens" yaml:"max_new_tokens" toml:"max_new_tokens"`
	MinLength          *int    `json:"min_length" yaml:"min_length" toml:"min_length"`
	NumBeams           int     `json:"num_beams" yaml:"num_beams" toml:"num_beams"`
	NumReturnSequences int     `json:"num_return_sequences" yaml:"num_return_sequences" toml:"num_return_sequences"`
	Greedy             bool    `json:"greedy" yaml:"greedy" toml:"greedy"`
	Temperature        float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopK               int     `json:"top_k" yaml:"top_k" toml:"top_k"`
	TopP               float64 `json:"top_p" yaml:"top_p" toml:"top_p"`
	LengthPenalty      float64 `json:"length_penalty" yaml:"length_penalty" toml:"length_penalty"`
	NoEarlyStop        bool    `json:"no_early_stop" yaml:"no_early_stop" toml:"no_early_stop"`
	MemoryFraction     float64 `json:"memory_fraction" yaml:"memory_fraction" toml:"memory_fraction"`
	Seed               int64   `json:"seed" yaml:"seed" toml:"seed"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Decoding builds a DecodingConfig from the file values, applying package
// defaults for anything unspecified. The result is not yet validated;
// callers validate once when constructing the orchestrator.
func (c Config) Decoding() generate.DecodingConfig {
	d := generate.DefaultDecodingConfig()
	if c.BatchSize > 0 {
		d.BatchSize = c.BatchSize
	}
	if c.MaxNewTokens > 0 {
		d.MaxNewTokens = c.MaxNewTokens
	}
	if c.MinLength != nil {
		d.MinLength = c.MinLength
	}
	if c.NumBeams > 0 {
		d.NumBeams = c.NumBeams
	}
	if c.NumReturnSequences > 0 {
		d.NumReturnSequences = c.NumReturnSequences
	}
	if c.Greedy {
		d.DoSample = false
	}
	if c.Temperature > 0 {
		d.Temperature = c.Temperature
	}
	if c.TopK != 0 {
		d.TopK = c.TopK
	}
	if c.TopP > 0 {
		d.TopP = c.TopP
	}
	if c.LengthPenalty != 0 {
		d.LengthPenalty = c.LengthPenalty
	}
	d.NoEarlyStop = c.NoEarlyStop
	if c.MemoryFraction > 0 {
		d.MemoryFraction = c.MemoryFraction
	}
	d.Seed = c.Seed
	return d
}
