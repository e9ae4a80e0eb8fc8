package cache

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"flarestudio/internal/app/port"
	"flarestudio/internal/domain/entity"
)

// Compile-time check
var _ port.QuoteCache = (*QuoteCache)(nil)

const quoteKeyPrefix = "quote_v1_"

// QuoteCache implements port.QuoteCache using the go-cache in-memory library.
type QuoteCache struct {
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewQuoteCache creates a cache whose entries expire after defaultTTL unless SetQuote says otherwise.
func NewQuoteCache(defaultTTL, cleanupInterval time.Duration, logger *zap.Logger) *QuoteCache {
	logger.Info(
		"Initialized go-cache for price quotes",
		zap.Duration("defaultExpiration", defaultTTL),
		zap.Duration("cleanupInterval", cleanupInterval),
	)
	return &QuoteCache{
		cache:  gocache.New(defaultTTL, cleanupInterval),
		logger: logger.Named("QuoteCache"),
	}
}

func quoteKey(network, symbol string) string {
	return quoteKeyPrefix + network + ":" + strings.ToUpper(symbol)
}

// GetQuote returns a cached quote for (network, symbol).
func (c *QuoteCache) GetQuote(network, symbol string) (entity.PriceQuote, bool) {
	key := quoteKey(network, symbol)
	if x, found := c.cache.Get(key); found {
		if q, ok := x.(entity.PriceQuote); ok {
			c.logger.Debug("Quote cache hit", zap.String("key", key))
			return q, true
		}
		c.logger.Warn("Quote cache data type mismatch", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", x)))
	}
	return entity.PriceQuote{}, false
}

// SetQuote caches quote under its network and symbol. A non-positive ttl uses the default expiration.
func (c *QuoteCache) SetQuote(quote entity.PriceQuote, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(quoteKey(quote.Network, quote.Symbol), quote, ttl)
}

// FlushNetwork drops every quote of network.
func (c *QuoteCache) FlushNetwork(network string) {
	prefix := quoteKeyPrefix + network + ":"
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}
