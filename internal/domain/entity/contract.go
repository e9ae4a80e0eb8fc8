package entity

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractName is a logical contract name registered in the FlareContractRegistry.
type ContractName string

const (
	FtsoRegistry   ContractName = "FtsoRegistry"
	FtsoManager    ContractName = "FtsoManager"
	PriceSubmitter ContractName = "PriceSubmitter"
	Relay          ContractName = "Relay"
	WNat           ContractName = "WNat"
)

var knownContractNames = []ContractName{FtsoRegistry, FtsoManager, PriceSubmitter, Relay, WNat}

// KnownContractNames returns every contract name the gateway can bind.
func KnownContractNames() []ContractName {
	names := make([]ContractName, len(knownContractNames))
	copy(names, knownContractNames)
	return names
}

// ParseContractName matches raw against the known names, ignoring case.
func ParseContractName(raw string) (ContractName, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, name := range knownContractNames {
		if strings.EqualFold(string(name), trimmed) {
			return name, true
		}
	}
	return "", false
}

func (n ContractName) String() string {
	return string(n)
}

// ContractRef is a resolved contract: its on-chain address and the interface used to call it.
type ContractRef struct {
	Name    ContractName
	Network NetworkDefinition
	Address common.Address
	ABI     *abi.ABI
}

// Key returns the binding cache key (network, name).
func (r ContractRef) Key() BindingKey {
	return BindingKey{Network: r.Network.Name, Contract: r.Name}
}

// BindingKey identifies a bound contract within a process.
type BindingKey struct {
	Network  string
	Contract ContractName
}

func (k BindingKey) String() string {
	return k.Network + "/" + string(k.Contract)
}

// RegistryEntry is one row of the on-chain registry's name table.
type RegistryEntry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
