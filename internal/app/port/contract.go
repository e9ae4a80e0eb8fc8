package port

import (
	"context"

	"flarestudio/internal/domain/entity"
)

// BoundContract is an invocable contract handle: a resolved reference plus the connection of its network.
type BoundContract interface {
	Ref() entity.ContractRef
	Connection() Connection
	// Call packs args for method, executes eth_call and unpacks the outputs in ABI order.
	Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)
}

// ContractResolver resolves logical contract names through the on-chain registry.
type ContractResolver interface {
	Resolve(ctx context.Context, name string, network entity.NetworkDefinition) (entity.ContractRef, error)
	ListContracts(ctx context.Context, network entity.NetworkDefinition) ([]entity.RegistryEntry, error)
}

// ContractBinder memoizes bound contracts per (network, name) for the active network.
type ContractBinder interface {
	Bind(ref entity.ContractRef, conn Connection) (BoundContract, error)
	BindByName(ctx context.Context, name string) (BoundContract, error)
	SwitchNetwork(name string) (entity.NetworkDefinition, error)
	ActiveNetwork() entity.NetworkDefinition
	Invalidate()
}
