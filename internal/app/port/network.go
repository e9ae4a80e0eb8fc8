package port

import (
	"context"
	"math/big"

	"flarestudio/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
)

// Connection is a read-only RPC connection to one network.
type Connection interface {
	// CallContract executes an eth_call against the given block (nil for latest).
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)

	// Definition returns the network this connection belongs to.
	Definition() entity.NetworkDefinition

	Close()
}

// ConnectionProvider hands out connections per network.
type ConnectionProvider interface {
	// GetConnection returns a connection for the network, dialing it on first use.
	// Failures are reported as *entity.NetworkUnreachableError.
	GetConnection(ctx context.Context, network entity.NetworkDefinition) (Connection, error)
	CloseAll()
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all available network definitions as a slice.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByName returns a specific network definition by its name.
	GetNetworkDefinitionByName(name string) (entity.NetworkDefinition, bool)
}

// RPCProber checks an endpoint with raw JSON-RPC, bypassing the connection cache.
type RPCProber interface {
	Probe(ctx context.Context, network entity.NetworkDefinition) ([]entity.ProbeResult, error)
}
