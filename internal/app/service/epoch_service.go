package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"flarestudio/internal/app/port"
	"flarestudio/internal/config"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/pkg/metrics"
	"flarestudio/internal/pkg/utils"
)

// Clock returns the current time.
type Clock func() time.Time

// epochServiceImpl implements port.EpochService
type epochServiceImpl struct {
	binder      port.ContractBinder
	epochLength uint64 // seconds, > 0
	now         Clock
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewEpochService creates an epoch service. A nil clock means time.Now.
func NewEpochService(binder port.ContractBinder, cfg *config.Config, clock Clock, m *metrics.Metrics, logger *zap.Logger) (port.EpochService, error) {
	if cfg.Epoch.FallbackLengthSeconds == 0 {
		return nil, fmt.Errorf("epoch length must be greater than zero")
	}
	if clock == nil {
		clock = time.Now
	}
	return &epochServiceImpl{
		binder:      binder,
		epochLength: cfg.Epoch.FallbackLengthSeconds,
		now:         clock,
		metrics:     m,
		logger:      logger.Named("EpochService"),
	}, nil
}

// CurrentEpochFrom asks the bound FtsoManager for the current price epoch.
// If the call fails the id is derived from the clock and marked approximate.
// A call that succeeds with an unusable value is an error, never a fallback.
func (s *epochServiceImpl) CurrentEpochFrom(ctx context.Context, manager port.BoundContract) (entity.EpochInfo, error) {
	network := manager.Ref().Network.Name
	out, err := manager.Call(ctx, abiregistry.MethodGetCurrentPriceEpochID)
	if err != nil {
		return s.fallback(network, err), nil
	}
	raw, ok := out[0].(*big.Int)
	if !ok {
		return entity.EpochInfo{}, fmt.Errorf("%w: epoch id on %s has type %T", entity.ErrUnexpectedOutput, network, out[0])
	}
	id, err := utils.ToUint64(raw)
	if err != nil {
		return entity.EpochInfo{}, fmt.Errorf("%w: epoch id on %s: %v", entity.ErrUnexpectedOutput, network, err)
	}
	return entity.EpochInfo{EpochID: id, Source: entity.EpochSourceOnChain, Network: network}, nil
}

// CurrentEpoch binds the active network's FtsoManager; a binding failure also falls back.
func (s *epochServiceImpl) CurrentEpoch(ctx context.Context) (entity.EpochInfo, error) {
	manager, err := s.binder.BindByName(ctx, string(entity.FtsoManager))
	if err != nil {
		return s.fallback(s.binder.ActiveNetwork().Name, err), nil
	}
	return s.CurrentEpochFrom(ctx, manager)
}

// fallback is the only place the configured epoch length is used.
func (s *epochServiceImpl) fallback(network string, cause error) entity.EpochInfo {
	now := s.now().Unix()
	if now < 0 {
		now = 0
	}
	info := entity.EpochInfo{
		EpochID:        uint64(now) / s.epochLength,
		Approximate:    true,
		Source:         entity.EpochSourceFallback,
		Network:        network,
		FallbackReason: cause.Error(),
	}
	s.metrics.IncEpochFallback(network)
	s.logger.Warn("Using approximate epoch id",
		zap.String("network", network),
		zap.Uint64("epoch_id", info.EpochID),
		zap.Uint64("epoch_length_seconds", s.epochLength),
		zap.Error(cause))
	return info
}

// VerifyEpochLength compares the configured epoch length with the manager's price epoch duration.
func (s *epochServiceImpl) VerifyEpochLength(ctx context.Context) (entity.EpochLengthCheck, error) {
	manager, err := s.binder.BindByName(ctx, string(entity.FtsoManager))
	if err != nil {
		return entity.EpochLengthCheck{}, err
	}
	network := manager.Ref().Network.Name
	out, err := manager.Call(ctx, abiregistry.MethodGetPriceEpochConfiguration)
	if err != nil {
		return entity.EpochLengthCheck{}, fmt.Errorf("failed to read epoch configuration on %s: %w", network, err)
	}
	first, ok1 := out[0].(*big.Int)
	duration, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return entity.EpochLengthCheck{}, fmt.Errorf("unexpected epoch configuration output on %s", network)
	}
	firstTs, err := utils.ToUint64(first)
	if err != nil {
		return entity.EpochLengthCheck{}, err
	}
	onChain, err := utils.ToUint64(duration)
	if err != nil {
		return entity.EpochLengthCheck{}, err
	}

	check := entity.EpochLengthCheck{
		Network:           network,
		ConfiguredSeconds: s.epochLength,
		OnChainSeconds:    onChain,
		FirstEpochStartTs: firstTs,
		Matches:           onChain == s.epochLength,
	}
	if !check.Matches {
		s.logger.Warn("Configured epoch length differs from on-chain price epoch duration",
			zap.String("network", network),
			zap.Uint64("configured", s.epochLength),
			zap.Uint64("onchain", onChain))
	}
	return check, nil
}
