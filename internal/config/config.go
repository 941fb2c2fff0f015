package config

import (
	"fmt"
	"os"

	"wallet_engine/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the wallet daemon.
type Config struct {
	Server  ServerConfig       `yaml:"server"`
	Wallet  WalletConfig       `yaml:"wallet"`
	API     APIConfig          `yaml:"api"`
	Engine  EngineConfig       `yaml:"engine"`
	Tokens  []entity.TokenInfo `yaml:"tokens"`
	Logging LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds the REST facade settings.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// WalletConfig identifies the single account this engine tracks.
type WalletConfig struct {
	Address          string `yaml:"address"`
	PrivateKey       string `yaml:"privateKey"` // hex, no 0x prefix
	ChainID          int64  `yaml:"chainID"`
	PrimaryAssetCode string `yaml:"primaryAssetCode"`
	DataDir          string `yaml:"dataDir"`
}

// APIConfig holds the remote ledger API client settings.
type APIConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	RateLimit            int    `yaml:"rateLimit"`
	BurstLimit           int    `yaml:"burstLimit"`
}

// EngineConfig holds the sync cadence and retry settings.
type EngineConfig struct {
	BlockHeightPollMillis int64 `yaml:"blockHeightPollMillis"`
	AddressPollMillis     int64 `yaml:"addressPollMillis"`
	NetworkFeesPollMillis int64 `yaml:"networkFeesPollMillis"`
	SavePollMillis        int64 `yaml:"savePollMillis"`
	LookbackBlocks        int64 `yaml:"lookbackBlocks"`
	BroadcastMaxAttempts  int   `yaml:"broadcastMaxAttempts"`
	TokenCacheTTLMinutes  int   `yaml:"tokenCacheTTLMinutes"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g. "debug", "info", "warn", "error"
}

// LoadConfig loads configuration from a YAML file and applies defaults for
// any cadence or limit left unset.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	if cfg.Wallet.Address == "" {
		return nil, fmt.Errorf("config %s: wallet.address is required", path)
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("config %s: api.baseURL is required", path)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// ApplyDefaults fills unset fields: 3s height and address polls, 10m fee
// refresh, 1s persistence flush, one week of block lookback.
func (c *Config) ApplyDefaults() {
	if c.Wallet.PrimaryAssetCode == "" {
		c.Wallet.PrimaryAssetCode = "KUSD"
	}
	if c.Wallet.DataDir == "" {
		c.Wallet.DataDir = "."
	}
	if c.API.RequestTimeoutMillis == 0 {
		c.API.RequestTimeoutMillis = 10000
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = 20
	}
	if c.API.BurstLimit == 0 {
		c.API.BurstLimit = 5
	}
	if c.Engine.BlockHeightPollMillis == 0 {
		c.Engine.BlockHeightPollMillis = 3000
	}
	if c.Engine.AddressPollMillis == 0 {
		c.Engine.AddressPollMillis = 3000
	}
	if c.Engine.NetworkFeesPollMillis == 0 {
		c.Engine.NetworkFeesPollMillis = 10 * 60 * 1000
	}
	if c.Engine.SavePollMillis == 0 {
		c.Engine.SavePollMillis = 1000
	}
	if c.Engine.LookbackBlocks == 0 {
		c.Engine.LookbackBlocks = 60 * 60 * 24 * 7
	}
	if c.Engine.BroadcastMaxAttempts == 0 {
		c.Engine.BroadcastMaxAttempts = 3
	}
	if c.Engine.TokenCacheTTLMinutes == 0 {
		c.Engine.TokenCacheTTLMinutes = 60
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
