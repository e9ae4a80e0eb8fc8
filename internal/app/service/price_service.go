package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"flarestudio/internal/app/port"
	"flarestudio/internal/config"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/infrastructure/network/contract"
	"flarestudio/internal/pkg/metrics"
	"flarestudio/internal/pkg/utils"
)

// Revert reasons containing one of these mean the registry does not know the symbol.
var unsupportedSymbolMarkers = []string{"not supported", "unknown", "symbol"}

const (
	quoteSourceChain = "chain"
	quoteSourceCache = "cache"
)

// priceServiceImpl implements port.PriceService
type priceServiceImpl struct {
	binder         port.ContractBinder
	cache          port.QuoteCache
	cacheTTL       time.Duration
	maxConcurrent  int
	requestTimeout time.Duration
	defaultSymbols []string
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewPriceService creates a new instance of priceServiceImpl.
// cache may be nil; a zero cacheTTL disables caching as well.
func NewPriceService(
	binder port.ContractBinder,
	cache port.QuoteCache,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) port.PriceService {
	return &priceServiceImpl{
		binder:         binder,
		cache:          cache,
		cacheTTL:       cfg.QuoteCacheTTL(),
		maxConcurrent:  cfg.PriceService.MaxConcurrentRequests,
		requestTimeout: cfg.PriceRequestTimeout(),
		defaultSymbols: utils.NormalizeSymbols(cfg.Symbols),
		metrics:        m,
		logger:         logger.Named("PriceService"),
	}
}

// PriceFrom reads one symbol's price from a bound FtsoRegistry and normalizes it.
func (s *priceServiceImpl) PriceFrom(ctx context.Context, registry port.BoundContract, symbol string) (entity.PriceQuote, error) {
	network := registry.Ref().Network.Name
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return entity.PriceQuote{}, s.fail(symbol, network, entity.CauseUnsupportedSymbol, errors.New("empty symbol"))
	}

	callCtx := ctx
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	out, err := registry.Call(callCtx, abiregistry.MethodGetCurrentPriceWithDecimals, symbol)
	if err != nil {
		return entity.PriceQuote{}, s.fail(symbol, network, classifyPriceFailure(err), err)
	}

	quote, err := normalizeQuote(symbol, network, out)
	if err != nil {
		return entity.PriceQuote{}, s.fail(symbol, network, entity.CauseRevert, err)
	}
	s.metrics.IncQuote(network, quoteSourceChain)
	return quote, nil
}

// normalizeQuote converts (price, timestamp, decimals) into a PriceQuote.
func normalizeQuote(symbol, network string, out []interface{}) (entity.PriceQuote, error) {
	if len(out) != 3 {
		return entity.PriceQuote{}, fmt.Errorf("expected 3 outputs, got %d", len(out))
	}
	raw, ok1 := out[0].(*big.Int)
	ts, ok2 := out[1].(*big.Int)
	dec, ok3 := out[2].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return entity.PriceQuote{}, fmt.Errorf("unexpected output types %T, %T, %T", out[0], out[1], out[2])
	}
	decimals, err := utils.ToUint8(dec)
	if err != nil {
		return entity.PriceQuote{}, fmt.Errorf("decimals: %w", err)
	}
	seconds, err := utils.ToUint64(ts)
	if err != nil || seconds > uint64(1<<62) {
		return entity.PriceQuote{}, fmt.Errorf("timestamp %s out of range", ts)
	}

	return entity.PriceQuote{
		Symbol:    symbol,
		Network:   network,
		Price:     utils.ScaleDown(raw, decimals),
		Timestamp: time.Unix(int64(seconds), 0).UTC(),
		Decimals:  decimals,
		RawPrice:  raw.String(),
	}, nil
}

func classifyPriceFailure(err error) entity.PriceFailureCause {
	if contract.IsLocal(err) {
		return entity.CauseRevert
	}
	reason, reverted := contract.IsRevert(err)
	if !reverted {
		return entity.CauseTransport
	}
	lower := strings.ToLower(reason)
	for _, marker := range unsupportedSymbolMarkers {
		if strings.Contains(lower, marker) {
			return entity.CauseUnsupportedSymbol
		}
	}
	return entity.CauseRevert
}

func (s *priceServiceImpl) fail(symbol, network string, cause entity.PriceFailureCause, err error) error {
	s.metrics.IncPriceFailure(network, string(cause))
	return &entity.PriceUnavailableError{Symbol: symbol, Network: network, Cause: cause, Err: err}
}

// AllPricesFrom fetches every symbol concurrently and keeps only the successes.
// Per-symbol failures are recorded in Failures and never fail the batch.
func (s *priceServiceImpl) AllPricesFrom(ctx context.Context, registry port.BoundContract, symbols []string) entity.BatchResult {
	symbols = utils.NormalizeSymbols(symbols)
	network := registry.Ref().Network.Name

	type outcome struct {
		quote entity.PriceQuote
		err   error
	}
	outcomes := make([]outcome, len(symbols))

	var g errgroup.Group
	if s.maxConcurrent > 0 {
		g.SetLimit(s.maxConcurrent)
	}
	for i, symbol := range symbols {
		g.Go(func() error {
			q, err := s.PriceFrom(ctx, registry, symbol)
			outcomes[i] = outcome{quote: q, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := entity.BatchResult{Network: network, Quotes: make([]entity.PriceQuote, 0, len(symbols))}
	for i, o := range outcomes {
		if o.err != nil {
			s.logger.Warn("Dropping symbol from batch",
				zap.String("symbol", symbols[i]),
				zap.String("network", network),
				zap.Error(o.err))
			result.Failures = append(result.Failures, entity.SymbolFailure{Symbol: symbols[i], Err: o.err})
			continue
		}
		result.Quotes = append(result.Quotes, o.quote)
	}
	return result
}

// GetPrice binds the active network's FtsoRegistry, serving from the cache when possible.
func (s *priceServiceImpl) GetPrice(ctx context.Context, symbol string) (entity.PriceQuote, error) {
	registry, err := s.binder.BindByName(ctx, string(entity.FtsoRegistry))
	if err != nil {
		return entity.PriceQuote{}, err
	}
	network := registry.Ref().Network.Name
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if q, ok := s.cached(network, symbol); ok {
		return q, nil
	}
	q, err := s.PriceFrom(ctx, registry, symbol)
	if err != nil {
		return entity.PriceQuote{}, err
	}
	s.remember(q)
	return q, nil
}

// GetAllPrices is AllPricesFrom on the active network; empty symbols means the configured set.
// It fails only when the registry cannot be bound.
func (s *priceServiceImpl) GetAllPrices(ctx context.Context, symbols []string) (entity.BatchResult, error) {
	registry, err := s.binder.BindByName(ctx, string(entity.FtsoRegistry))
	if err != nil {
		return entity.BatchResult{}, err
	}
	network := registry.Ref().Network.Name

	symbols = utils.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		symbols = s.defaultSymbols
	}

	var hits []entity.PriceQuote
	missing := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if q, ok := s.cached(network, sym); ok {
			hits = append(hits, q)
			continue
		}
		missing = append(missing, sym)
	}

	result := s.AllPricesFrom(ctx, registry, missing)
	for _, q := range result.Quotes {
		s.remember(q)
	}
	if len(hits) > 0 {
		result.Quotes = orderBySymbols(append(hits, result.Quotes...), symbols)
	}
	return result, nil
}

// SupportedSymbols lists the symbols the active network's FtsoRegistry knows.
func (s *priceServiceImpl) SupportedSymbols(ctx context.Context) ([]string, error) {
	registry, err := s.binder.BindByName(ctx, string(entity.FtsoRegistry))
	if err != nil {
		return nil, err
	}
	out, err := registry.Call(ctx, abiregistry.MethodGetSupportedSymbols)
	if err != nil {
		return nil, fmt.Errorf("failed to list supported symbols: %w", err)
	}
	symbols, ok := out[0].([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected getSupportedSymbols output %T", out[0])
	}
	return symbols, nil
}

// ForgetNetwork drops network's cached quotes.
func (s *priceServiceImpl) ForgetNetwork(network string) {
	if s.cache == nil {
		return
	}
	s.cache.FlushNetwork(network)
	s.logger.Debug("Flushed cached quotes", zap.String("network", network))
}

func (s *priceServiceImpl) cached(network, symbol string) (entity.PriceQuote, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return entity.PriceQuote{}, false
	}
	q, ok := s.cache.GetQuote(network, symbol)
	if ok {
		s.metrics.IncQuote(network, quoteSourceCache)
	}
	return q, ok
}

func (s *priceServiceImpl) remember(q entity.PriceQuote) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	s.cache.SetQuote(q, s.cacheTTL)
}

func orderBySymbols(quotes []entity.PriceQuote, symbols []string) []entity.PriceQuote {
	bySymbol := make(map[string]entity.PriceQuote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}
	ordered := make([]entity.PriceQuote, 0, len(quotes))
	for _, sym := range symbols {
		if q, ok := bySymbol[sym]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}
