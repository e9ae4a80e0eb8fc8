package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"flarestudio/internal/app/port"
	"flarestudio/internal/app/service"
	"flarestudio/internal/config"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/infrastructure/cache"
	clientprovider "flarestudio/internal/infrastructure/network/client"
	networkdefinition "flarestudio/internal/infrastructure/network/definition"
	"flarestudio/internal/infrastructure/rpcprobe"
	"flarestudio/internal/pkg/logger"
	"flarestudio/internal/pkg/metrics"
)

const defaultConfigPath = "config/config.yml"

// application holds every wired component for one CLI invocation.
type application struct {
	cfg         *config.Config
	logger      *zap.Logger
	registry    *prometheus.Registry
	networks    *networkdefinition.NetworkDefinitionProvider
	connections port.ConnectionProvider
	resolver    port.ContractResolver
	binder      port.ContractBinder
	prices      port.PriceService
	epochs      port.EpochService
	prober      port.RPCProber
}

// loadConfig reads path, falling back to CONFIG_PATH and then built-in defaults
// when the default file is absent.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logrus.Warnf("Config file %s not found, using built-in defaults", path)
			return config.Default(), nil
		}
	}
	return config.LoadConfig(path)
}

func newApplication(opts *rootOptions) (*application, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.network != "" {
		cfg.ActiveNetwork = opts.network
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	zapLogger, err := logger.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetSlogDefault(zapLogger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	networks, err := networkdefinition.NewNetworkDefinitionProvider(cfg, zapLogger)
	if err != nil {
		return nil, err
	}
	connections := clientprovider.NewEVMConnectionProvider(cfg, zapLogger, m)
	resolver := service.NewContractResolver(connections, abiregistry.New(), zapLogger)
	binder, err := service.NewContractBinder(resolver, connections, networks, cfg.ActiveNetwork, m, zapLogger)
	if err != nil {
		return nil, err
	}

	var quotes port.QuoteCache
	if ttl := cfg.QuoteCacheTTL(); ttl > 0 {
		quotes = cache.NewQuoteCache(ttl, 2*ttl, zapLogger)
	}
	prices := service.NewPriceService(binder, quotes, cfg, m, zapLogger)
	epochs, err := service.NewEpochService(binder, cfg, time.Now, m, zapLogger)
	if err != nil {
		return nil, err
	}
	prober := rpcprobe.NewProber(time.Duration(cfg.RpcClient.CallTimeoutMs)*time.Millisecond, zapLogger)

	zapLogger.Debug("Application wired",
		zap.String("network", cfg.ActiveNetwork),
		zap.String("abi_version", abiregistry.Version))

	return &application{
		cfg:         cfg,
		logger:      zapLogger,
		registry:    reg,
		networks:    networks,
		connections: connections,
		resolver:    resolver,
		binder:      binder,
		prices:      prices,
		epochs:      epochs,
		prober:      prober,
	}, nil
}

func (a *application) Close() {
	a.connections.CloseAll()
	_ = a.logger.Sync()
}
