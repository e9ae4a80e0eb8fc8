package entity

import "time"

// ProbeResult is the outcome of a raw JSON-RPC health probe against one endpoint.
type ProbeResult struct {
	Network        string        `json:"network"`
	Endpoint       string        `json:"endpoint"`
	ChainID        uint64        `json:"chainId"`
	BlockNumber    uint64        `json:"blockNumber"`
	Latency        time.Duration `json:"latency"`
	ChainIDMatches bool          `json:"chainIdMatches"`
	Error          string        `json:"error,omitempty"`
}
