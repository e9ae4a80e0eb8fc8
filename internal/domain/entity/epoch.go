package entity

// EpochSource tells where an epoch id came from.
type EpochSource string

const (
	EpochSourceOnChain  EpochSource = "onchain"
	EpochSourceFallback EpochSource = "fallback"
)

// EpochInfo is the current price epoch.
// Approximate is set when the id was derived from wall-clock time instead of the manager contract.
type EpochInfo struct {
	EpochID        uint64      `json:"epochId"`
	Approximate    bool        `json:"approximate"`
	Source         EpochSource `json:"source"`
	Network        string      `json:"network"`
	FallbackReason string      `json:"fallbackReason,omitempty"`
}

// EpochLengthCheck compares the configured fallback epoch length with the on-chain one.
type EpochLengthCheck struct {
	Network           string `json:"network"`
	ConfiguredSeconds uint64 `json:"configuredSeconds"`
	OnChainSeconds    uint64 `json:"onChainSeconds"`
	FirstEpochStartTs uint64 `json:"firstEpochStartTs"`
	Matches           bool   `json:"matches"`
}
