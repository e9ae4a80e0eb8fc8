package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	ActiveNetwork string             `yaml:"activeNetwork"`
	Networks      []NetworkOverride  `yaml:"networks"`
	Symbols       []string           `yaml:"symbols"`
	PriceService  PriceServiceConfig `yaml:"priceService"`
	Epoch         EpochConfig        `yaml:"epoch"`
	RpcClient     RpcClientConfig    `yaml:"rpcClient"`
	Logging       LoggingConfig      `yaml:"logging"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// NetworkOverride replaces fields of a predefined network definition.
// Empty fields keep the predefined value.
type NetworkOverride struct {
	Name            string   `yaml:"name"`
	ChainID         uint64   `yaml:"chainID"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRPCURLs"`
	RegistryAddress string   `yaml:"registryAddress"`
}

// PriceServiceConfig holds configuration for price lookups.
type PriceServiceConfig struct {
	CacheTTLSeconds       int   `yaml:"cacheTTLSeconds"`
	MaxConcurrentRequests int   `yaml:"maxConcurrentRequests"`
	RequestTimeoutMillis  int64 `yaml:"requestTimeoutMillis"`
}

// EpochConfig holds the locally assumed price epoch length.
type EpochConfig struct {
	FallbackLengthSeconds uint64 `yaml:"fallbackLengthSeconds"`
}

// RpcClientConfig holds configuration for RPC clients.
type RpcClientConfig struct {
	DialTimeoutMs int64   `yaml:"dialTimeoutMs"`
	CallTimeoutMs int64   `yaml:"callTimeoutMs"`
	MaxRetries    int     `yaml:"maxRetries"`
	RetryDelayMs  int64   `yaml:"retryDelayMs"`
	RateLimit     float64 `yaml:"rateLimit"`
	BurstLimit    int     `yaml:"burstLimit"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level      string `yaml:"level"`    // debug, info, warn, error
	Encoding   string `yaml:"encoding"` // json or console
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

const DefaultEpochLengthSeconds = 180

// DefaultSymbols is used when neither the config nor the caller names any.
var DefaultSymbols = []string{"FLR", "SGB", "BTC", "ETH", "XRP", "USDC", "USDT"}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		logrus.Errorf("Failed to load config from %s: %v", path, err)
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	logrus.Info("Configuration loaded successfully.")
	return cfg, nil
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}

	if c.ActiveNetwork == "" {
		c.ActiveNetwork = "flare"
		logrus.Infof("activeNetwork not set, defaulting to %s", c.ActiveNetwork)
	}
	c.ActiveNetwork = strings.ToLower(strings.TrimSpace(c.ActiveNetwork))

	if len(c.Symbols) == 0 {
		c.Symbols = append([]string(nil), DefaultSymbols...)
	}

	if c.PriceService.MaxConcurrentRequests == 0 {
		c.PriceService.MaxConcurrentRequests = 8
		logrus.Infof("MaxConcurrentRequests for PriceService not set, defaulting to %d", c.PriceService.MaxConcurrentRequests)
	}
	if c.PriceService.RequestTimeoutMillis == 0 {
		c.PriceService.RequestTimeoutMillis = 10000
	}

	if c.Epoch.FallbackLengthSeconds == 0 {
		c.Epoch.FallbackLengthSeconds = DefaultEpochLengthSeconds
		logrus.Infof("epoch.fallbackLengthSeconds not set, defaulting to %d", c.Epoch.FallbackLengthSeconds)
	}

	if c.RpcClient.DialTimeoutMs == 0 {
		c.RpcClient.DialTimeoutMs = 5000
	}
	if c.RpcClient.CallTimeoutMs == 0 {
		c.RpcClient.CallTimeoutMs = 8000
	}
	if c.RpcClient.MaxRetries == 0 {
		c.RpcClient.MaxRetries = 3
	}
	if c.RpcClient.RetryDelayMs == 0 {
		c.RpcClient.RetryDelayMs = 250
	}
	if c.RpcClient.RateLimit == 0 {
		c.RpcClient.RateLimit = 20
	}
	if c.RpcClient.BurstLimit == 0 {
		c.RpcClient.BurstLimit = 10
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "console"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 50
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 14
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PriceService.MaxConcurrentRequests < 0 {
		errs = append(errs, errors.New("priceService.maxConcurrentRequests must not be negative"))
	}
	if c.PriceService.CacheTTLSeconds < 0 {
		errs = append(errs, errors.New("priceService.cacheTTLSeconds must not be negative"))
	}
	if c.Epoch.FallbackLengthSeconds == 0 {
		errs = append(errs, errors.New("epoch.fallbackLengthSeconds must be greater than zero"))
	}
	if c.RpcClient.RateLimit < 0 || c.RpcClient.BurstLimit < 0 {
		errs = append(errs, errors.New("rpcClient rate and burst limits must not be negative"))
	}
	if c.RpcClient.MaxRetries < 0 {
		errs = append(errs, errors.New("rpcClient.maxRetries must not be negative"))
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.encoding %q must be json or console", c.Logging.Encoding))
	}
	seen := make(map[string]bool, len(c.Networks))
	for i, n := range c.Networks {
		name := strings.ToLower(strings.TrimSpace(n.Name))
		if name == "" {
			errs = append(errs, fmt.Errorf("networks[%d].name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("network %q configured twice", name))
		}
		seen[name] = true
		c.Networks[i].Name = name
	}
	return errors.Join(errs...)
}

// NetworkOverride returns the override for name, if any.
func (c *Config) NetworkOverride(name string) (NetworkOverride, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, n := range c.Networks {
		if strings.ToLower(n.Name) == name {
			return n, true
		}
	}
	return NetworkOverride{}, false
}

func (c *Config) EpochLength() time.Duration {
	return time.Duration(c.Epoch.FallbackLengthSeconds) * time.Second
}

func (c *Config) QuoteCacheTTL() time.Duration {
	return time.Duration(c.PriceService.CacheTTLSeconds) * time.Second
}

func (c *Config) PriceRequestTimeout() time.Duration {
	return time.Duration(c.PriceService.RequestTimeoutMillis) * time.Millisecond
}
