package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full application configuration, loaded from an optional
// config.yaml in the working directory and overridden by SCANNER_-prefixed
// environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Chain    ChainConfig    `yaml:"chain" mapstructure:"chain"`
	Explorer ExplorerConfig `yaml:"explorer" mapstructure:"explorer"`
	Dex      DexConfig      `yaml:"dex" mapstructure:"dex"`
	Honeypot HoneypotConfig `yaml:"honeypot" mapstructure:"honeypot"`
	Holders  HoldersConfig  `yaml:"holders" mapstructure:"holders"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Scan     ScanConfig     `yaml:"scan" mapstructure:"scan"`
}

type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type DatabaseConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// ChainConfig configures the JSON-RPC endpoint for the single supported network.
type ChainConfig struct {
	RPCURL  string `yaml:"rpc_url" mapstructure:"rpc_url"`
	ChainID int64  `yaml:"chain_id" mapstructure:"chain_id"`
	Tag     string `yaml:"tag" mapstructure:"tag"`
}

type ExplorerConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

func (c ExplorerConfig) Enabled() bool { return c.APIKey != "" }

type DexConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

type HoneypotConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

type HoldersConfig struct {
	Token           string `yaml:"token" mapstructure:"token"`
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	Mode            string `yaml:"mode" mapstructure:"mode"` // fast|full|off
	ArchiveProbeCap int    `yaml:"archive_probe_cap" mapstructure:"archive_probe_cap"`
	MinRows         int    `yaml:"min_rows" mapstructure:"min_rows"`
}

func (c HoldersConfig) Enabled() bool { return c.Token != "" && c.Mode != "off" }

type LLMConfig struct {
	APIKey        string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Model         string `yaml:"model" mapstructure:"model"`
	FallbackModel string `yaml:"fallback_model" mapstructure:"fallback_model"`
}

func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

type ScanConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
}

// Load reads configuration from config.yaml (if present) and the environment,
// environment variables taking precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SCANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default must be bound explicitly for Unmarshal to see
	// their environment variables.
	for _, key := range []string{"database.url", "chain.rpc_url", "explorer.api_key", "honeypot.api_key", "holders.token", "llm.api_key", "llm.base_url"} {
		_ = v.BindEnv(key)
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("chain.chain_id", 8453)
	v.SetDefault("chain.tag", "base")
	v.SetDefault("explorer.base_url", "https://api.basescan.org/v2/api")
	v.SetDefault("dex.base_url", "https://api.dexscreener.com")
	v.SetDefault("honeypot.base_url", "https://api.honeypot.is/v2")
	v.SetDefault("holders.base_url", "https://streaming.bitquery.io/graphql")
	v.SetDefault("holders.mode", "fast")
	v.SetDefault("holders.archive_probe_cap", 30)
	v.SetDefault("holders.min_rows", 3)
	v.SetDefault("llm.model", "llama-3.3-70b")
	v.SetDefault("llm.fallback_model", "llama-3.1-8b")
	v.SetDefault("scan.cache_ttl_seconds", 900)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}
