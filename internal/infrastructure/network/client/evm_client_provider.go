package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"flarestudio/internal/app/port"
	"flarestudio/internal/config"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/pkg/metrics"
)

type dialFunc func(ctx context.Context, rawURL string) (rpcBackend, error)

func dialEthclient(ctx context.Context, rawURL string) (rpcBackend, error) {
	return ethclient.DialContext(ctx, rawURL)
}

// evmConnectionProvider implements the port.ConnectionProvider interface.
type evmConnectionProvider struct {
	conns          map[string]*EVMConnection
	mu             sync.Mutex
	group          singleflight.Group
	dial           dialFunc
	logger         *zap.Logger
	metrics        *metrics.Metrics
	dialTimeout    time.Duration
	rpcCallTimeout time.Duration
	maxRetries     uint
	retryDelay     time.Duration
	rateLimit      rate.Limit
	burst          int
}

// NewEVMConnectionProvider creates a new EVMConnectionProvider.
func NewEVMConnectionProvider(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) port.ConnectionProvider {
	return newEVMConnectionProvider(cfg, logger, m, dialEthclient)
}

func newEVMConnectionProvider(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, dial dialFunc) *evmConnectionProvider {
	rc := cfg.RpcClient
	attempts := uint(1)
	if rc.MaxRetries > 0 {
		attempts = uint(rc.MaxRetries)
	}
	limit := rate.Inf
	if rc.RateLimit > 0 {
		limit = rate.Limit(rc.RateLimit)
	}
	return &evmConnectionProvider{
		conns:          make(map[string]*EVMConnection),
		dial:           dial,
		logger:         logger.Named("ConnectionProvider"),
		metrics:        m,
		dialTimeout:    time.Duration(rc.DialTimeoutMs) * time.Millisecond,
		rpcCallTimeout: time.Duration(rc.CallTimeoutMs) * time.Millisecond,
		maxRetries:     attempts,
		retryDelay:     time.Duration(rc.RetryDelayMs) * time.Millisecond,
		rateLimit:      limit,
		burst:          rc.BurstLimit,
	}
}

// GetConnection retrieves a connection for the given network definition.
// It caches connections to avoid reconnecting repeatedly. Dialing happens outside
// the cache lock, once per network; a caller whose ctx ends stops waiting while
// the dial continues for the others.
func (p *evmConnectionProvider) GetConnection(ctx context.Context, netDef entity.NetworkDefinition) (port.Connection, error) {
	if conn, exists := p.cached(netDef.Name); exists {
		return conn, nil
	}

	ch := p.group.DoChan(netDef.Name, func() (interface{}, error) {
		if conn, exists := p.cached(netDef.Name); exists {
			return conn, nil
		}
		conn, err := p.dialNetwork(context.WithoutCancel(ctx), netDef)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.conns[netDef.Name] = conn
		p.mu.Unlock()
		return conn, nil
	})

	select {
	case <-ctx.Done():
		return nil, &entity.NetworkUnreachableError{Network: netDef.Name, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*EVMConnection), nil
	}
}

func (p *evmConnectionProvider) cached(name string) (*EVMConnection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conn, exists := p.conns[name]
	return conn, exists
}

// dialNetwork tries the primary endpoint, then each fallback. Every attempt is
// bounded by the dial timeout and the retry count.
func (p *evmConnectionProvider) dialNetwork(ctx context.Context, netDef entity.NetworkDefinition) (*EVMConnection, error) {
	urls := netDef.RPCURLs()
	if len(urls) == 0 {
		return nil, &entity.NetworkUnreachableError{Network: netDef.Name, Err: errors.New("no RPC endpoints configured")}
	}

	var lastErr error
	var lastURL string
	for _, rpcURL := range urls {
		conn, err := p.connect(ctx, netDef, rpcURL)
		if err == nil {
			p.logger.Info("Connected to network",
				zap.String("network", netDef.Name),
				zap.String("endpoint", rpcURL),
				zap.Uint64("chain_id", netDef.ChainID))
			return conn, nil
		}
		p.logger.Warn("RPC endpoint unusable", zap.String("network", netDef.Name), zap.String("endpoint", rpcURL), zap.Error(err))
		lastErr, lastURL = err, rpcURL
	}

	return nil, &entity.NetworkUnreachableError{
		Network:  netDef.Name,
		Endpoint: lastURL,
		Err:      fmt.Errorf("all RPC endpoints failed: %w", lastErr),
	}
}

// connect dials one endpoint with retries and verifies its chain ID.
// A chain ID mismatch is not retried.
func (p *evmConnectionProvider) connect(ctx context.Context, netDef entity.NetworkDefinition, rpcURL string) (*EVMConnection, error) {
	var conn *EVMConnection
	err := retry.Do(
		func() error {
			dialCtx, cancel := p.withDialTimeout(ctx)
			defer cancel()

			backend, err := p.dial(dialCtx, rpcURL)
			if err != nil {
				return fmt.Errorf("dial %s: %w", rpcURL, err)
			}
			c := newEVMConnection(backend, netDef, rpcURL, rate.NewLimiter(p.rateLimit, p.burst), p.rpcCallTimeout, p.metrics, p.logger)
			if err := c.verifyChainID(dialCtx); err != nil {
				backend.Close()
				if errors.Is(err, errChainMismatch) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.maxRetries),
		retry.Delay(p.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Debug("Retrying RPC dial", zap.String("endpoint", rpcURL), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (p *evmConnectionProvider) withDialTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.dialTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.dialTimeout)
}

// CloseAll closes and forgets every cached connection.
func (p *evmConnectionProvider) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, conn := range p.conns {
		conn.Close()
		delete(p.conns, name)
	}
}
