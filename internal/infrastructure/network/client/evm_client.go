package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"flarestudio/internal/domain/entity"
	"flarestudio/internal/pkg/metrics"
)

var errChainMismatch = errors.New("chainID mismatch")

// rpcBackend is the subset of *ethclient.Client a connection needs.
type rpcBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// EVMConnection implements port.Connection over go-ethereum's ethclient.
// Every call waits on a per-connection limiter and runs under rpcCallTimeout.
type EVMConnection struct {
	backend        rpcBackend
	netDef         entity.NetworkDefinition
	endpoint       string
	limiter        *rate.Limiter
	rpcCallTimeout time.Duration
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

func newEVMConnection(
	backend rpcBackend,
	netDef entity.NetworkDefinition,
	endpoint string,
	limiter *rate.Limiter,
	rpcCallTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EVMConnection {
	return &EVMConnection{
		backend:        backend,
		netDef:         netDef,
		endpoint:       endpoint,
		limiter:        limiter,
		rpcCallTimeout: rpcCallTimeout,
		metrics:        m,
		logger:         logger,
	}
}

// CallContract executes eth_call.
func (c *EVMConnection) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait on %s: %w", c.netDef.Name, err)
		}
	}

	callCtx := ctx
	if c.rpcCallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.rpcCallTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.backend.CallContract(callCtx, msg, blockNumber)
	c.metrics.ObserveRPCCall(c.netDef.Name, time.Since(start), err)
	if err != nil {
		c.logger.Debug("eth_call failed",
			zap.String("network", c.netDef.Name),
			zap.Stringer("to", msg.To),
			zap.Error(err))
		return nil, err
	}
	return out, nil
}

// verifyChainID checks that the endpoint serves the chain the definition names.
func (c *EVMConnection) verifyChainID(ctx context.Context) error {
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("eth_chainId on %s: %w", c.endpoint, err)
	}
	if !id.IsUint64() || id.Uint64() != c.netDef.ChainID {
		return fmt.Errorf("%w for %s: expected %d, got %s", errChainMismatch, c.endpoint, c.netDef.ChainID, id)
	}
	return nil
}

// Definition returns the network definition for this connection.
func (c *EVMConnection) Definition() entity.NetworkDefinition {
	return c.netDef
}

// Endpoint returns the RPC URL the connection was dialed to.
func (c *EVMConnection) Endpoint() string {
	return c.endpoint
}

func (c *EVMConnection) Close() {
	c.backend.Close()
}
