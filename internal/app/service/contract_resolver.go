package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flarestudio/internal/app/port"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/infrastructure/network/contract"
)

// registryContractName labels calls made on the FlareContractRegistry itself.
const registryContractName entity.ContractName = "FlareContractRegistry"

var errZeroAddress = errors.New("registry returned the zero address")

// contractResolverImpl implements port.ContractResolver
type contractResolverImpl struct {
	connections port.ConnectionProvider
	abis        *abiregistry.Registry
	logger      *zap.Logger
}

// NewContractResolver creates a resolver that asks each network's FlareContractRegistry.
func NewContractResolver(connections port.ConnectionProvider, abis *abiregistry.Registry, logger *zap.Logger) port.ContractResolver {
	return &contractResolverImpl{
		connections: connections,
		abis:        abis,
		logger:      logger.Named("ContractResolver"),
	}
}

// Resolve maps a logical contract name to its address and interface on network.
// Failures are never retried here.
func (r *contractResolverImpl) Resolve(ctx context.Context, name string, network entity.NetworkDefinition) (entity.ContractRef, error) {
	contractName, ok := entity.ParseContractName(name)
	if !ok {
		return entity.ContractRef{}, &entity.UnknownInterfaceError{Contract: name, Network: network.Name}
	}

	registry, err := r.registry(ctx, network)
	if err != nil {
		return entity.ContractRef{}, &entity.ContractNotFoundError{Contract: string(contractName), Network: network.Name, Err: err}
	}

	out, err := registry.Call(ctx, abiregistry.MethodGetContractAddressByName, string(contractName))
	if err != nil {
		r.logger.Warn("Registry lookup failed",
			zap.String("contract", string(contractName)),
			zap.String("network", network.Name),
			zap.Error(err))
		return entity.ContractRef{}, &entity.ContractNotFoundError{
			Contract: string(contractName),
			Network:  network.Name,
			Err:      asTransport(network, err),
		}
	}

	address, ok := out[0].(common.Address)
	if !ok {
		return entity.ContractRef{}, &entity.ContractNotFoundError{
			Contract: string(contractName),
			Network:  network.Name,
			Err:      fmt.Errorf("unexpected registry output %T", out[0]),
		}
	}
	if address == (common.Address{}) {
		return entity.ContractRef{}, &entity.ContractNotFoundError{Contract: string(contractName), Network: network.Name, Err: errZeroAddress}
	}

	iface, ok := r.abis.Lookup(contractName, network.Family)
	if !ok {
		return entity.ContractRef{}, &entity.UnknownInterfaceError{Contract: string(contractName), Network: network.Name, Family: network.Family}
	}

	r.logger.Debug("Resolved contract",
		zap.String("contract", string(contractName)),
		zap.String("network", network.Name),
		zap.String("address", address.Hex()))
	return entity.ContractRef{Name: contractName, Network: network, Address: address, ABI: iface}, nil
}

// ListContracts returns the registry's full name table for network.
func (r *contractResolverImpl) ListContracts(ctx context.Context, network entity.NetworkDefinition) ([]entity.RegistryEntry, error) {
	registry, err := r.registry(ctx, network)
	if err != nil {
		return nil, err
	}

	out, err := registry.Call(ctx, abiregistry.MethodGetAllContracts)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts on %s: %w", network.Name, asTransport(network, err))
	}
	names, okNames := out[0].([]string)
	addresses, okAddrs := out[1].([]common.Address)
	if !okNames || !okAddrs || len(names) != len(addresses) {
		return nil, fmt.Errorf("malformed getAllContracts output on %s", network.Name)
	}

	entries := make([]entity.RegistryEntry, len(names))
	for i := range names {
		entries[i] = entity.RegistryEntry{Name: names[i], Address: addresses[i].Hex()}
	}
	return entries, nil
}

func (r *contractResolverImpl) registry(ctx context.Context, network entity.NetworkDefinition) (port.BoundContract, error) {
	if !common.IsHexAddress(network.RegistryAddress) {
		return nil, fmt.Errorf("network %s has no valid registry address %q", network.Name, network.RegistryAddress)
	}
	conn, err := r.connections.GetConnection(ctx, network)
	if err != nil {
		return nil, err
	}
	ref := entity.ContractRef{
		Name:    registryContractName,
		Network: network,
		Address: common.HexToAddress(network.RegistryAddress),
		ABI:     r.abis.RegistryABI(),
	}
	return contract.New(ref, conn), nil
}

// asTransport wraps transport call failures so callers can detect an unreachable network.
// Reverts and local encoding failures are returned unchanged.
func asTransport(network entity.NetworkDefinition, err error) error {
	if _, reverted := contract.IsRevert(err); reverted || contract.IsLocal(err) {
		return err
	}
	var unreachable *entity.NetworkUnreachableError
	if errors.As(err, &unreachable) {
		return err
	}
	return &entity.NetworkUnreachableError{Network: network.Name, Err: err}
}
