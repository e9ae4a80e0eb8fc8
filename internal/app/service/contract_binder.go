package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"flarestudio/internal/app/port"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/network/contract"
	"flarestudio/internal/pkg/metrics"
)

// defaultResolveTimeout bounds a shared first resolution, which does not follow any caller's ctx.
const defaultResolveTimeout = 30 * time.Second

// contractBinderImpl implements port.ContractBinder.
// Handles are cached per (network, name) and only for the active network.
type contractBinderImpl struct {
	resolver    port.ContractResolver
	connections port.ConnectionProvider
	networks    port.NetworkDefinitionProvider
	metrics     *metrics.Metrics
	logger      *zap.Logger

	resolveTimeout time.Duration

	mu     sync.RWMutex
	active entity.NetworkDefinition
	bound  map[entity.BindingKey]port.BoundContract
	group  singleflight.Group
}

// NewContractBinder creates a binder whose active network is activeNetwork.
func NewContractBinder(
	resolver port.ContractResolver,
	connections port.ConnectionProvider,
	networks port.NetworkDefinitionProvider,
	activeNetwork string,
	m *metrics.Metrics,
	logger *zap.Logger,
) (port.ContractBinder, error) {
	active, ok := networks.GetNetworkDefinitionByName(activeNetwork)
	if !ok {
		return nil, fmt.Errorf("active network %q: %w", activeNetwork, entity.ErrUnknownNetwork)
	}
	return &contractBinderImpl{
		resolver:       resolver,
		connections:    connections,
		networks:       networks,
		metrics:        m,
		logger:         logger.Named("ContractBinder"),
		resolveTimeout: defaultResolveTimeout,
		active:         active,
		bound:          make(map[entity.BindingKey]port.BoundContract),
	}, nil
}

// Bind returns the cached handle for ref's key, creating it on a miss.
func (b *contractBinderImpl) Bind(ref entity.ContractRef, conn port.Connection) (port.BoundContract, error) {
	if conn == nil {
		return nil, fmt.Errorf("bind %s: nil connection", ref.Key())
	}
	if got := conn.Definition().Name; got != ref.Network.Name {
		return nil, fmt.Errorf("bind %s: connection belongs to network %q", ref.Key(), got)
	}

	key := ref.Key()
	if h, ok := b.lookup(key); ok {
		return h, nil
	}
	return b.store(key, contract.New(ref, conn)), nil
}

// BindByName resolves name on the active network, at most once per key.
func (b *contractBinderImpl) BindByName(ctx context.Context, name string) (port.BoundContract, error) {
	contractName, ok := entity.ParseContractName(name)
	network := b.ActiveNetwork()
	if !ok {
		return nil, &entity.UnknownInterfaceError{Contract: name, Network: network.Name}
	}

	key := entity.BindingKey{Network: network.Name, Contract: contractName}
	if h, ok := b.lookup(key); ok {
		return h, nil
	}

	// The shared resolution outlives any single caller: a caller whose ctx ends
	// stops waiting, the others still get the result.
	ch := b.group.DoChan(key.String(), func() (interface{}, error) {
		// another caller may have finished while we queued on the group
		if h, ok := b.peek(key); ok {
			return h, nil
		}
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.resolveTimeout)
		defer cancel()
		ref, err := b.resolver.Resolve(sharedCtx, string(contractName), network)
		if err != nil {
			return nil, err
		}
		conn, err := b.connections.GetConnection(sharedCtx, network)
		if err != nil {
			return nil, err
		}
		return b.store(key, contract.New(ref, conn)), nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("bind %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			b.logger.Warn("Failed to bind contract", zap.Stringer("key", key), zap.Error(res.Err))
			return nil, res.Err
		}
		if res.Shared {
			b.logger.Debug("Shared in-flight resolution", zap.Stringer("key", key))
		}
		return res.Val.(port.BoundContract), nil
	}
}

// SwitchNetwork makes name the active network and drops handles of every other network.
func (b *contractBinderImpl) SwitchNetwork(name string) (entity.NetworkDefinition, error) {
	def, ok := b.networks.GetNetworkDefinitionByName(name)
	if !ok {
		return entity.NetworkDefinition{}, fmt.Errorf("switch to %q: %w", name, entity.ErrUnknownNetwork)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	previous := b.active.Name
	b.active = def
	dropped := 0
	for key := range b.bound {
		if key.Network != def.Name {
			delete(b.bound, key)
			dropped++
		}
	}
	b.logger.Info("Switched active network",
		zap.String("from", previous),
		zap.String("to", def.Name),
		zap.Int("dropped_handles", dropped))
	return def, nil
}

func (b *contractBinderImpl) ActiveNetwork() entity.NetworkDefinition {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// Invalidate drops every cached handle.
func (b *contractBinderImpl) Invalidate() {
	b.mu.Lock()
	b.bound = make(map[entity.BindingKey]port.BoundContract)
	b.mu.Unlock()
}

func (b *contractBinderImpl) lookup(key entity.BindingKey) (port.BoundContract, bool) {
	h, ok := b.peek(key)
	b.metrics.IncBinderLookup(ok)
	return h, ok
}

func (b *contractBinderImpl) peek(key entity.BindingKey) (port.BoundContract, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.bound[key]
	return h, ok
}

// store caches h unless an entry already exists (first wins) or key's network
// is no longer active, in which case h is returned uncached.
func (b *contractBinderImpl) store(key entity.BindingKey, h port.BoundContract) port.BoundContract {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.bound[key]; ok {
		return existing
	}
	if key.Network != b.active.Name {
		return h
	}
	b.bound[key] = h
	return h
}
