package entity

import "time"

// PriceQuote is a normalized FTSO price for one symbol.
// RawPrice is the exact integer reported on-chain; Price equals RawPrice / 10^Decimals.
type PriceQuote struct {
	Symbol    string    `json:"symbol"`
	Network   string    `json:"network"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Decimals  uint8     `json:"decimals"`
	RawPrice  string    `json:"rawPrice"`
}

// SymbolFailure records why a symbol was dropped from a batch.
type SymbolFailure struct {
	Symbol string
	Err    error
}

// BatchResult holds the quotes that were fetched successfully.
// Failed symbols never appear in Quotes.
type BatchResult struct {
	Network  string          `json:"network"`
	Quotes   []PriceQuote    `json:"quotes"`
	Failures []SymbolFailure `json:"-"`
}
