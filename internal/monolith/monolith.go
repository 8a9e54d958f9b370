// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/config"
	"github.com/fd1az/dex-aggregator/internal/di"
	"github.com/fd1az/dex-aggregator/internal/httpclient"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	// Create Ethereum client
	ethClient, err := ethclient.Dial(cfg.Ethereum.HTTPURL)
	if err != nil {
		return nil, err
	}

	// Use default asset registry (pre-populated with common assets)
	assetRegistry := asset.DefaultRegistry()
	if err := seedRegistry(assetRegistry, cfg); err != nil {
		ethClient.Close()
		return nil, err
	}

	// Merge an external token list when one is configured. Failure is not
	// fatal: the built-in registry already covers the core pairs.
	if err := mergeTokenList(assetRegistry, cfg, log); err != nil {
		log.Warn(context.Background(), "token list load failed, continuing with built-in registry", "error", err)
	}

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("assetRegistry", assetRegistry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: assetRegistry,
		container:     container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}

// seedRegistry makes sure the configured chain has a native asset and a
// wrapped-native mapping, so path substitution works on chains the default
// registry does not know about.
func seedRegistry(reg *asset.Registry, cfg *config.Config) error {
	chainID := cfg.Ethereum.ChainID

	if _, ok := reg.GetNative(chainID); !ok {
		reg.Register(asset.MustNewNative(chainID, "ETH", "Ether", 18))
	}

	wrapped := cfg.Tokens.WrappedNativeAddressHex()
	if _, ok := reg.GetToken(chainID, wrapped); !ok {
		reg.Register(asset.MustNewToken(chainID, wrapped, "WETH", "Wrapped Ether", 18))
	}
	return reg.SetWrappedNative(chainID, wrapped)
}

// mergeTokenList extends the registry from the configured token list, if any.
func mergeTokenList(reg *asset.Registry, cfg *config.Config, log logger.LoggerInterface) error {
	if cfg.Tokens.ListURL == "" && cfg.Tokens.ListFile == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("tokenlist"),
		httpclient.WithRequestTimeout(10*time.Second),
	)
	if err != nil {
		return err
	}

	loader := asset.NewLoader(client, log)
	defer loader.Close()

	var list *asset.TokenList
	if cfg.Tokens.ListFile != "" {
		list, err = loader.LoadFile(cfg.Tokens.ListFile)
	} else {
		list, err = loader.FetchURL(ctx, cfg.Tokens.ListURL)
	}
	if err != nil {
		return err
	}

	added := loader.Merge(ctx, reg, list, cfg.Ethereum.ChainID)
	log.Info(ctx, "token list merged", "name", list.Name, "tokens_added", added)
	return nil
}
