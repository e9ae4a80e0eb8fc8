package port

import (
	"context"
	"time"

	"flarestudio/internal/domain/entity"
)

// PriceService fetches and normalizes FTSO prices.
type PriceService interface {
	PriceFrom(ctx context.Context, registry BoundContract, symbol string) (entity.PriceQuote, error)
	AllPricesFrom(ctx context.Context, registry BoundContract, symbols []string) entity.BatchResult

	// GetPrice and GetAllPrices bind the FtsoRegistry of the active network.
	GetPrice(ctx context.Context, symbol string) (entity.PriceQuote, error)
	GetAllPrices(ctx context.Context, symbols []string) (entity.BatchResult, error)
	SupportedSymbols(ctx context.Context) ([]string, error)
	// ForgetNetwork drops cached quotes of a network that is no longer active.
	ForgetNetwork(network string)
}

// EpochService reports the current price epoch.
type EpochService interface {
	CurrentEpochFrom(ctx context.Context, manager BoundContract) (entity.EpochInfo, error)
	CurrentEpoch(ctx context.Context) (entity.EpochInfo, error)
	VerifyEpochLength(ctx context.Context) (entity.EpochLengthCheck, error)
}

// QuoteCache keeps recently fetched quotes.
type QuoteCache interface {
	GetQuote(network, symbol string) (entity.PriceQuote, bool)
	SetQuote(quote entity.PriceQuote, ttl time.Duration)
	FlushNetwork(network string)
}
