// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	V2         V2VenueConfig    `mapstructure:"v2"`
	V3         V3VenueConfig    `mapstructure:"v3"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Tokens     TokensConfig     `mapstructure:"tokens"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	BasePath       string        `mapstructure:"base_path"`
	HealthPort     int           `mapstructure:"health_port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// V2VenueConfig holds the constant-product venue contract addresses.
// The venue is enabled only when both addresses are configured.
type V2VenueConfig struct {
	Name           string `mapstructure:"name"`
	FactoryAddress string `mapstructure:"factory_address"`
	RouterAddress  string `mapstructure:"router_address"`
}

// Enabled reports whether the V2 venue is fully configured.
func (c *V2VenueConfig) Enabled() bool {
	return c.FactoryAddress != "" && c.RouterAddress != ""
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *V2VenueConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// RouterAddressHex returns the router address as common.Address.
func (c *V2VenueConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// V3VenueConfig holds the concentrated-liquidity venue contract addresses.
// The venue is enabled only when factory, quoter and swap router are all
// configured.
type V3VenueConfig struct {
	Name              string `mapstructure:"name"`
	FactoryAddress    string `mapstructure:"factory_address"`
	QuoterAddress     string `mapstructure:"quoter_address"`
	SwapRouterAddress string `mapstructure:"swap_router_address"`
}

// Enabled reports whether the V3 venue is fully configured.
func (c *V3VenueConfig) Enabled() bool {
	return c.FactoryAddress != "" && c.QuoterAddress != "" && c.SwapRouterAddress != ""
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *V3VenueConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *V3VenueConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// SwapRouterAddressHex returns the swap router address as common.Address.
func (c *V3VenueConfig) SwapRouterAddressHex() common.Address {
	return common.HexToAddress(c.SwapRouterAddress)
}

// AggregatorConfig holds quote aggregation tuning.
type AggregatorConfig struct {
	ContractAddress    string        `mapstructure:"contract_address"`
	DefaultSlippage    float64       `mapstructure:"default_slippage"`
	DeadlineSeconds    int64         `mapstructure:"deadline_seconds"`
	DefaultGasEstimate uint64        `mapstructure:"default_gas_estimate"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// ContractAddressHex returns the on-chain aggregator contract address.
func (c *AggregatorConfig) ContractAddressHex() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// TokensConfig holds token registry seeding configuration.
type TokensConfig struct {
	WrappedNativeAddress string `mapstructure:"wrapped_native_address"`
	ListURL              string `mapstructure:"list_url"`
	ListFile             string `mapstructure:"list_file"`
}

// WrappedNativeAddressHex returns the wrapped native token address.
func (c *TokensConfig) WrappedNativeAddressHex() common.Address {
	return common.HexToAddress(c.WrappedNativeAddress)
}

// WatchConfig holds the TUI / stream watch settings.
type WatchConfig struct {
	Pairs     []string      `mapstructure:"pairs"`
	TradeSize string        `mapstructure:"trade_size"`
	Interval  time.Duration `mapstructure:"interval"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("AGG")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "AGG_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "AGG_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "AGG_LOG_LEVEL", "LOG_LEVEL")

	// Server
	v.BindEnv("server.port", "AGG_PORT", "PORT")
	v.BindEnv("server.base_path", "AGG_BASE_PATH", "BASE_PATH")
	v.BindEnv("server.health_port", "AGG_HEALTH_PORT", "HEALTH_PORT")

	// Ethereum
	v.BindEnv("ethereum.http_url", "AGG_RPC_URL", "RPC_URL")
	v.BindEnv("ethereum.websocket_url", "AGG_WS_URL", "WS_URL")
	v.BindEnv("ethereum.chain_id", "AGG_CHAIN_ID", "CHAIN_ID")

	// V2 venue
	v.BindEnv("v2.factory_address", "AGG_FACTORY_ADDRESS", "FACTORY_ADDRESS")
	v.BindEnv("v2.router_address", "AGG_ROUTER_ADDRESS", "ROUTER_ADDRESS")

	// V3 venue
	v.BindEnv("v3.factory_address", "AGG_V3_FACTORY_ADDRESS", "V3_FACTORY_ADDRESS")
	v.BindEnv("v3.quoter_address", "AGG_V3_QUOTER_ADDRESS", "V3_QUOTER_ADDRESS")
	v.BindEnv("v3.swap_router_address", "AGG_V3_SWAP_ROUTER_ADDRESS", "V3_SWAP_ROUTER_ADDRESS")

	// Aggregator
	v.BindEnv("aggregator.contract_address", "AGG_CONTRACT_ADDRESS", "AGGREGATOR_CONTRACT_ADDRESS")

	// Tokens
	v.BindEnv("tokens.wrapped_native_address", "AGG_WRAPPED_NATIVE_ADDRESS", "WRAPPED_NATIVE_ADDRESS")
	v.BindEnv("tokens.list_url", "AGG_TOKEN_LIST_URL", "TOKEN_LIST_URL")
	v.BindEnv("tokens.list_file", "AGG_TOKEN_LIST_FILE", "TOKEN_LIST_FILE")

	// Watch
	v.BindEnv("watch.pairs", "AGG_WATCH_PAIRS", "WATCH_PAIRS")
	v.BindEnv("watch.trade_size", "AGG_WATCH_TRADE_SIZE", "WATCH_TRADE_SIZE")

	// Telemetry
	v.BindEnv("telemetry.enabled", "AGG_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "AGG_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "AGG_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "dex-aggregator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.base_path", "/api/aggregator")
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "10s")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.read_timeout", "30s")
	v.SetDefault("ethereum.rate_limit_rps", 50)
	v.SetDefault("ethereum.max_retries", 3)
	v.SetDefault("ethereum.initial_backoff", "200ms")
	v.SetDefault("ethereum.max_backoff", "5s")

	// Venue display names
	v.SetDefault("v2.name", "Uniswap")
	v.SetDefault("v3.name", "Uniswap")

	// Aggregator defaults
	v.SetDefault("aggregator.default_slippage", 0.5)
	v.SetDefault("aggregator.deadline_seconds", 1800)
	v.SetDefault("aggregator.default_gas_estimate", 150000)
	v.SetDefault("aggregator.request_timeout", "10s")

	// Token defaults (Ethereum Mainnet WETH)
	v.SetDefault("tokens.wrapped_native_address", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	// Watch defaults
	v.SetDefault("watch.pairs", []string{"WETH-USDC"})
	v.SetDefault("watch.trade_size", "1")
	v.SetDefault("watch.interval", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "dex-aggregator")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url (RPC_URL) is required")
	}

	// A venue configured halfway is a deployment mistake, not a disable.
	if c.V2.FactoryAddress != "" || c.V2.RouterAddress != "" {
		if !common.IsHexAddress(c.V2.FactoryAddress) {
			return fmt.Errorf("invalid v2.factory_address: %q", c.V2.FactoryAddress)
		}
		if !common.IsHexAddress(c.V2.RouterAddress) {
			return fmt.Errorf("invalid v2.router_address: %q", c.V2.RouterAddress)
		}
	}
	if c.V3.FactoryAddress != "" || c.V3.QuoterAddress != "" || c.V3.SwapRouterAddress != "" {
		if !common.IsHexAddress(c.V3.FactoryAddress) {
			return fmt.Errorf("invalid v3.factory_address: %q", c.V3.FactoryAddress)
		}
		if !common.IsHexAddress(c.V3.QuoterAddress) {
			return fmt.Errorf("invalid v3.quoter_address: %q", c.V3.QuoterAddress)
		}
		if !common.IsHexAddress(c.V3.SwapRouterAddress) {
			return fmt.Errorf("invalid v3.swap_router_address: %q", c.V3.SwapRouterAddress)
		}
	}

	if !c.V2.Enabled() && !c.V3.Enabled() {
		return fmt.Errorf("no venue configured: set FACTORY_ADDRESS+ROUTER_ADDRESS and/or V3_FACTORY_ADDRESS+V3_QUOTER_ADDRESS+V3_SWAP_ROUTER_ADDRESS")
	}

	if c.Aggregator.ContractAddress != "" && !common.IsHexAddress(c.Aggregator.ContractAddress) {
		return fmt.Errorf("invalid aggregator.contract_address: %q", c.Aggregator.ContractAddress)
	}
	if !common.IsHexAddress(c.Tokens.WrappedNativeAddress) {
		return fmt.Errorf("invalid tokens.wrapped_native_address: %q", c.Tokens.WrappedNativeAddress)
	}
	if c.Aggregator.DefaultSlippage < 0 || c.Aggregator.DefaultSlippage > 100 {
		return fmt.Errorf("aggregator.default_slippage must be within [0,100]")
	}

	return nil
}
