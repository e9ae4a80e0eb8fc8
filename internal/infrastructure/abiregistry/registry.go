// Package abiregistry maps known contract names to their interface descriptions.
package abiregistry

import (
	"fmt"
	"strings"
	"sync"

	"flarestudio/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Method names used by the gateway.
const (
	MethodGetContractAddressByName    = "getContractAddressByName"
	MethodGetAllContracts             = "getAllContracts"
	MethodGetCurrentPriceWithDecimals = "getCurrentPriceWithDecimals"
	MethodGetSupportedSymbols         = "getSupportedSymbols"
	MethodGetCurrentPriceEpochID      = "getCurrentPriceEpochId"
	MethodGetPriceEpochConfiguration  = "getPriceEpochConfiguration"
)

// Version of the interface table; bump when an ABI changes.
const Version = "periphery-2024.1"

// rawByFamily is the versioned interface table keyed by (name, family).
// Relay is part of the FTSOv2 protocol and has no songbird-family interface here.
var rawByFamily = map[entity.NetworkFamily]map[entity.ContractName]string{
	entity.FamilyFlare: {
		entity.FtsoRegistry:   ftsoRegistryABI,
		entity.FtsoManager:    ftsoManagerABI,
		entity.PriceSubmitter: priceSubmitterABI,
		entity.Relay:          relayABI,
		entity.WNat:           wNatABI,
	},
	entity.FamilySongbird: {
		entity.FtsoRegistry:   ftsoRegistryABI,
		entity.FtsoManager:    ftsoManagerABI,
		entity.PriceSubmitter: priceSubmitterABI,
		entity.WNat:           wNatABI,
	},
}

var (
	parseOnce   sync.Once
	parsed      map[entity.NetworkFamily]map[entity.ContractName]*abi.ABI
	registryABI *abi.ABI
)

func mustParse(name, raw string) *abi.ABI {
	a, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		// The tables are compile-time constants, a parse failure is a programming error.
		panic(fmt.Sprintf("failed to parse %s ABI: %v", name, err))
	}
	return &a
}

func initParsed() {
	parseOnce.Do(func() {
		registryABI = mustParse("FlareContractRegistry", flareContractRegistryABI)
		parsed = make(map[entity.NetworkFamily]map[entity.ContractName]*abi.ABI, len(rawByFamily))
		cache := make(map[string]*abi.ABI)
		for family, contracts := range rawByFamily {
			parsed[family] = make(map[entity.ContractName]*abi.ABI, len(contracts))
			for name, raw := range contracts {
				a, ok := cache[raw]
				if !ok {
					a = mustParse(string(name), raw)
					cache[raw] = a
				}
				parsed[family][name] = a
			}
		}
	})
}

// Registry looks up interface descriptions.
type Registry struct{}

// New returns the static interface registry.
func New() *Registry {
	initParsed()
	return &Registry{}
}

// RegistryABI returns the interface of the FlareContractRegistry itself.
func (r *Registry) RegistryABI() *abi.ABI {
	return registryABI
}

// Lookup returns the interface for name within family.
func (r *Registry) Lookup(name entity.ContractName, family entity.NetworkFamily) (*abi.ABI, bool) {
	contracts, ok := parsed[family]
	if !ok {
		return nil, false
	}
	a, ok := contracts[name]
	return a, ok
}

// Names lists the contract names with an interface in family.
func (r *Registry) Names(family entity.NetworkFamily) []entity.ContractName {
	var names []entity.ContractName
	for _, name := range entity.KnownContractNames() {
		if _, ok := parsed[family][name]; ok {
			names = append(names, name)
		}
	}
	return names
}
