package networkdefinition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"flarestudio/internal/config"
	"flarestudio/internal/domain/entity"
)

// FlareContractRegistryAddress is the same on every Flare-family network.
const FlareContractRegistryAddress = "0xaD67FE66660Fb8dFE9d6b1b4240d8650e30F6019"

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Flare = entity.NetworkDefinition{
		ChainID:          14,
		Name:             "flare",
		Family:           entity.FamilyFlare,
		NativeSymbol:     "FLR",
		PrimaryRPCURL:    "https://flare-api.flare.network/ext/C/rpc",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/flare"},
		RegistryAddress:  FlareContractRegistryAddress,
		BlockExplorerURL: "https://flare-explorer.flare.network",
	}
	Songbird = entity.NetworkDefinition{
		ChainID:          19,
		Name:             "songbird",
		Family:           entity.FamilySongbird,
		NativeSymbol:     "SGB",
		PrimaryRPCURL:    "https://songbird-api.flare.network/ext/C/rpc",
		FallbackRPCURLs:  []string{"https://sgb.ftso.com.au/ext/bc/C/rpc"},
		RegistryAddress:  FlareContractRegistryAddress,
		BlockExplorerURL: "https://songbird-explorer.flare.network",
	}
	Coston = entity.NetworkDefinition{
		ChainID:          16,
		Name:             "coston",
		Family:           entity.FamilySongbird,
		NativeSymbol:     "CFLR",
		PrimaryRPCURL:    "https://coston-api.flare.network/ext/C/rpc",
		RegistryAddress:  FlareContractRegistryAddress,
		BlockExplorerURL: "https://coston-explorer.flare.network",
	}
	Coston2 = entity.NetworkDefinition{
		ChainID:          114,
		Name:             "coston2",
		Family:           entity.FamilyFlare,
		NativeSymbol:     "C2FLR",
		PrimaryRPCURL:    "https://coston2-api.flare.network/ext/C/rpc",
		RegistryAddress:  FlareContractRegistryAddress,
		BlockExplorerURL: "https://coston2-explorer.flare.network",
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
var allKnownDefinitions = map[string]entity.NetworkDefinition{
	Flare.Name:    Flare,
	Songbird.Name: Songbird,
	Coston.Name:   Coston,
	Coston2.Name:  Coston2,
}

// NetworkDefinitionProvider provides network definitions.
// Definitions are fixed once the provider is built.
type NetworkDefinitionProvider struct {
	logger  *zap.Logger
	defs    map[string]entity.NetworkDefinition
	ordered []entity.NetworkDefinition
}

// NewNetworkDefinitionProvider merges the predefined networks with configured overrides.
// Overrides may only target known networks; a chain ID override that disagrees
// with the predefined one is rejected.
func NewNetworkDefinitionProvider(cfg *config.Config, log *zap.Logger) (*NetworkDefinitionProvider, error) {
	p := &NetworkDefinitionProvider{
		logger: log.Named("NetworkDefinitionProvider"),
		defs:   make(map[string]entity.NetworkDefinition, len(allKnownDefinitions)),
	}
	for name, def := range allKnownDefinitions {
		def.FallbackRPCURLs = append([]string(nil), def.FallbackRPCURLs...)
		p.defs[name] = def
	}

	for _, o := range cfg.Networks {
		name := strings.ToLower(strings.TrimSpace(o.Name))
		def, ok := p.defs[name]
		if !ok {
			return nil, fmt.Errorf("network override %q: %w", o.Name, entity.ErrUnknownNetwork)
		}
		if o.ChainID != 0 && o.ChainID != def.ChainID {
			return nil, fmt.Errorf("network override %q: chainID %d does not match %d", name, o.ChainID, def.ChainID)
		}
		if o.RPCURL != "" {
			def.PrimaryRPCURL = o.RPCURL
		}
		if len(o.FallbackRPCURLs) > 0 {
			def.FallbackRPCURLs = append([]string(nil), o.FallbackRPCURLs...)
		}
		if o.RegistryAddress != "" {
			if !common.IsHexAddress(o.RegistryAddress) {
				return nil, fmt.Errorf("network override %q: invalid registry address %q", name, o.RegistryAddress)
			}
			def.RegistryAddress = common.HexToAddress(o.RegistryAddress).Hex()
		}
		p.defs[name] = def
		p.logger.Debug("Applied network override", zap.String("network", name), zap.String("rpc", def.PrimaryRPCURL))
	}

	for _, def := range p.defs {
		p.ordered = append(p.ordered, def)
	}
	sort.Slice(p.ordered, func(i, j int) bool { return p.ordered[i].ChainID < p.ordered[j].ChainID })

	if _, ok := p.defs[cfg.ActiveNetwork]; !ok {
		return nil, fmt.Errorf("active network %q: %w", cfg.ActiveNetwork, entity.ErrUnknownNetwork)
	}

	p.logger.Info("Network definitions ready", zap.Int("count", len(p.ordered)), zap.String("active", cfg.ActiveNetwork))
	return p, nil
}

// GetAllNetworkDefinitions returns every known network ordered by chain ID.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.ordered))
	copy(defsCopy, p.ordered)
	return defsCopy
}

// GetNetworkDefinitionByName returns a network definition by its name, case-insensitively.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(name string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	def, ok := p.defs[strings.ToLower(strings.TrimSpace(name))]
	return def, ok
}

// GetNetworkDefinitionByChainID returns a network definition by its chain ID.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.ordered {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}
