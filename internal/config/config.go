package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Trace struct {
		Path string `yaml:"path"`
		// AllowOrphans tolerates interrupted captures by dropping
		// orphan sub-trees instead of failing the whole session.
		AllowOrphans bool `yaml:"allow_orphans"`
	} `yaml:"trace"`
	Session struct {
		MaxQueries int  `yaml:"max_queries"`
		BatchJudge bool `yaml:"batch_judge"`
	} `yaml:"session"`
	Oracle struct {
		Provider string `yaml:"provider"` // "console" or "gemini"
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
		Intent   string `yaml:"intent"` // intended behavior, for the LLM oracle
	} `yaml:"oracle"`
	DB struct {
		Path string `yaml:"path"`
	} `yaml:"db"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Oracle.Provider = "console"
	cfg.Oracle.Model = "gemini-2.5-flash-lite"
	cfg.DB.Path = "faultline.db"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config when present
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("FAULTLINE_API_KEY"); apiKey != "" {
		cfg.Oracle.APIKey = apiKey
	}
	if provider := os.Getenv("FAULTLINE_ORACLE"); provider != "" {
		cfg.Oracle.Provider = provider
	}
	if budget := os.Getenv("FAULTLINE_MAX_QUERIES"); budget != "" {
		if n, err := strconv.Atoi(budget); err == nil {
			cfg.Session.MaxQueries = n
		}
	}

	return cfg, nil
}
