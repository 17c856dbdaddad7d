package configloader

import (
	"fmt"
	"os"
	"strings"

	"nft_manager/internal/pkg/utils"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultChainIDs is the chain set queried when insight.chainIds is empty:
// Ethereum, OP Mainnet, Polygon, Soneium, Base.
var DefaultChainIDs = []uint64{1, 10, 137, 1868, 8453}

const (
	defaultInsightBaseURL     = "https://insight.thirdweb.com"
	defaultInsightClientIDEnv = "INSIGHT_CLIENT_ID"
	defaultPrivateKeyEnv      = "WALLET_PRIVATE_KEY"
)

// ServerConfig holds server-specific configurations. Timeouts are in seconds.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// InsightConfig holds the indexing service configuration.
type InsightConfig struct {
	BaseURL              string   `yaml:"baseURL"`
	ClientID             string   `yaml:"clientId"`
	ClientIDEnv          string   `yaml:"clientIdEnv"`
	ChainIDs             []uint64 `yaml:"chainIds"`
	RequestTimeoutMillis int64    `yaml:"requestTimeoutMillis"`
}

// NetworkNodeConfig overrides or adds an RPC endpoint for a chain.
type NetworkNodeConfig struct {
	ChainID         uint64   `yaml:"chainID"`
	Name            string   `yaml:"name"`
	Identifier      string   `yaml:"identifier"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRpcURLs"`
}

// WalletConfig tells where the signing key comes from.
type WalletConfig struct {
	PrivateKeyEnv string `yaml:"privateKeyEnv"`
	KeyFile       string `yaml:"keyFile"`
	WatchAddress  string `yaml:"watchAddress"` // used when no key is configured
}

// TransferConfig holds dispatch status tracking settings.
type TransferConfig struct {
	StatusTTLMinutes       int `yaml:"statusTTLMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
	ConfirmTimeoutMinutes  int `yaml:"confirmTimeoutMinutes"`
}

// RpcClientConfig holds configuration for RPC clients.
type RpcClientConfig struct {
	ConnectTimeoutMs int64   `yaml:"connectTimeoutMs"`
	RateLimit        float64 `yaml:"rateLimit"` // submissions per second per chain
	BurstLimit       int     `yaml:"burstLimit"`
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SpecFile string `yaml:"specFile"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Logging   LoggingConfig       `yaml:"logging"`
	Insight   InsightConfig       `yaml:"insight"`
	Networks  []NetworkNodeConfig `yaml:"networks"`
	Wallet    WalletConfig        `yaml:"wallet"`
	Transfers TransferConfig      `yaml:"transfers"`
	RpcClient RpcClientConfig     `yaml:"rpcClient"`
	Swagger   SwaggerConfig       `yaml:"swagger"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	cfg.Server.Port = strings.TrimPrefix(cfg.Server.Port, ":")
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Insight.BaseURL == "" {
		cfg.Insight.BaseURL = defaultInsightBaseURL
		logrus.Infof("Insight.BaseURL not set, defaulting to %s", cfg.Insight.BaseURL)
	}
	if cfg.Insight.ClientIDEnv == "" {
		cfg.Insight.ClientIDEnv = defaultInsightClientIDEnv
	}
	if cfg.Insight.ClientID == "" {
		cfg.Insight.ClientID = utils.GetEnv(cfg.Insight.ClientIDEnv, "")
	}
	if len(cfg.Insight.ChainIDs) == 0 {
		cfg.Insight.ChainIDs = append([]uint64(nil), DefaultChainIDs...)
		logrus.Infof("Insight.ChainIDs not set, defaulting to %v", cfg.Insight.ChainIDs)
	}
	if cfg.Insight.RequestTimeoutMillis <= 0 {
		cfg.Insight.RequestTimeoutMillis = 10000
	}

	if cfg.Wallet.PrivateKeyEnv == "" {
		cfg.Wallet.PrivateKeyEnv = defaultPrivateKeyEnv
	}

	if cfg.Transfers.StatusTTLMinutes <= 0 {
		cfg.Transfers.StatusTTLMinutes = 60
	}
	if cfg.Transfers.CleanupIntervalMinutes <= 0 {
		cfg.Transfers.CleanupIntervalMinutes = 10
	}
	if cfg.Transfers.ConfirmTimeoutMinutes <= 0 {
		cfg.Transfers.ConfirmTimeoutMinutes = 30
	}

	if cfg.RpcClient.ConnectTimeoutMs <= 0 {
		cfg.RpcClient.ConnectTimeoutMs = 10000
	}
	if cfg.RpcClient.RateLimit <= 0 {
		cfg.RpcClient.RateLimit = 5
	}
	if cfg.RpcClient.BurstLimit <= 0 {
		cfg.RpcClient.BurstLimit = 1
	}

	if cfg.Swagger.SpecFile == "" {
		cfg.Swagger.SpecFile = "./docs/swagger.yaml"
	}
}

func (cfg *Config) validate() error {
	if cfg.Insight.ClientID == "" {
		logrus.Warnf("Insight client id is empty (set insight.clientId or %s). Inventory requests will be rejected by the service.", cfg.Insight.ClientIDEnv)
	}
	seen := make(map[uint64]struct{}, len(cfg.Insight.ChainIDs))
	for _, id := range cfg.Insight.ChainIDs {
		if id == 0 {
			return fmt.Errorf("insight.chainIds contains chain id 0")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("insight.chainIds contains duplicate chain id %d", id)
		}
		seen[id] = struct{}{}
	}
	for i, network := range cfg.Networks {
		if network.ChainID == 0 {
			return fmt.Errorf("networks[%d]: chainID is required", i)
		}
		if network.RPCURL == "" {
			logrus.Warnf("Network '%s' (ChainID: %d) has no rpcURL, built-in endpoints will be used.", network.Name, network.ChainID)
		}
	}
	return nil
}
