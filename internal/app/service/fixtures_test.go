package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"

	"flarestudio/internal/app/port"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/pkg/testutil/fakechain"
)

var (
	testRegistryAddress = common.HexToAddress("0xaD67FE66660Fb8dFE9d6b1b4240d8650e30F6019")
	ftsoRegistryAddress = common.HexToAddress("0x13DC2b5053857AE17a4f95aFF55530b267F3E040")
	ftsoManagerAddress  = common.HexToAddress("0xbfA12e4E1411B62EdA8B035d71735667422A6A9e")
	relayAddress        = common.HexToAddress("0x57a4c3676d08Aa5d15410b5A6A80fBcEF72f3F45")

	flareNet = entity.NetworkDefinition{
		ChainID: 14, Name: "flare", Family: entity.FamilyFlare,
		PrimaryRPCURL: "http://flare", RegistryAddress: testRegistryAddress.Hex(),
	}
	coston2Net = entity.NetworkDefinition{
		ChainID: 114, Name: "coston2", Family: entity.FamilyFlare,
		PrimaryRPCURL: "http://coston2", RegistryAddress: testRegistryAddress.Hex(),
	}
	songbirdNet = entity.NetworkDefinition{
		ChainID: 19, Name: "songbird", Family: entity.FamilySongbird,
		PrimaryRPCURL: "http://songbird", RegistryAddress: testRegistryAddress.Hex(),
	}
)

type onChainPrice struct {
	raw      *big.Int
	ts       int64
	decimals int64
}

// chainState configures a fake network with the registry, FtsoRegistry and FtsoManager.
type chainState struct {
	addresses map[string]common.Address
	prices    map[string]onChainPrice
	priceErr  map[string]error
	epochID   *big.Int
	epochErr  error
	epochLen  int64
	symbols   []string
}

func defaultChainState() *chainState {
	return &chainState{
		addresses: map[string]common.Address{
			"FtsoRegistry": ftsoRegistryAddress,
			"FtsoManager":  ftsoManagerAddress,
			"Relay":        relayAddress,
		},
		prices: map[string]onChainPrice{
			"BTC": {raw: big.NewInt(6512345), ts: 1_700_000_000, decimals: 2},
			"ETH": {raw: big.NewInt(345678901), ts: 1_700_000_000, decimals: 5},
			"FLR": {raw: big.NewInt(2345), ts: 1_700_000_090, decimals: 5},
		},
		priceErr: map[string]error{},
		epochID:  big.NewInt(123456),
		epochLen: 180,
		symbols:  []string{"BTC", "ETH", "FLR"},
	}
}

func newChain(network entity.NetworkDefinition, st *chainState) *fakechain.Chain {
	abis := abiregistry.New()
	registryABI := abis.RegistryABI()
	ftsoRegistryABI, _ := abis.Lookup(entity.FtsoRegistry, entity.FamilyFlare)
	ftsoManagerABI, _ := abis.Lookup(entity.FtsoManager, entity.FamilyFlare)

	c := fakechain.New(network)
	c.Handle(testRegistryAddress, registryABI, abiregistry.MethodGetContractAddressByName, func(args []interface{}) ([]interface{}, error) {
		return []interface{}{st.addresses[args[0].(string)]}, nil
	})
	c.Handle(testRegistryAddress, registryABI, abiregistry.MethodGetAllContracts, func([]interface{}) ([]interface{}, error) {
		names := []string{"FtsoManager", "FtsoRegistry"}
		addrs := []common.Address{st.addresses["FtsoManager"], st.addresses["FtsoRegistry"]}
		return []interface{}{names, addrs}, nil
	})
	c.Handle(ftsoRegistryAddress, ftsoRegistryABI, abiregistry.MethodGetCurrentPriceWithDecimals, func(args []interface{}) ([]interface{}, error) {
		symbol := args[0].(string)
		if err := st.priceErr[symbol]; err != nil {
			return nil, err
		}
		p, ok := st.prices[symbol]
		if !ok {
			return nil, fakechain.Revert("FTSO symbol not supported")
		}
		return []interface{}{p.raw, big.NewInt(p.ts), big.NewInt(p.decimals)}, nil
	})
	c.Handle(ftsoRegistryAddress, ftsoRegistryABI, abiregistry.MethodGetSupportedSymbols, func([]interface{}) ([]interface{}, error) {
		return []interface{}{st.symbols}, nil
	})
	c.Handle(ftsoManagerAddress, ftsoManagerABI, abiregistry.MethodGetCurrentPriceEpochID, func([]interface{}) ([]interface{}, error) {
		if st.epochErr != nil {
			return nil, st.epochErr
		}
		return []interface{}{st.epochID}, nil
	})
	c.Handle(ftsoManagerAddress, ftsoManagerABI, abiregistry.MethodGetPriceEpochConfiguration, func([]interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(1658429955), big.NewInt(st.epochLen), big.NewInt(90)}, nil
	})
	return c
}

// fakeConnections hands out fake chains by network name.
type fakeConnections struct {
	mu     sync.Mutex
	chains map[string]*fakechain.Chain
}

func newFakeConnections(chains ...*fakechain.Chain) *fakeConnections {
	fc := &fakeConnections{chains: make(map[string]*fakechain.Chain)}
	for _, c := range chains {
		fc.chains[c.Definition().Name] = c
	}
	return fc
}

func (f *fakeConnections) GetConnection(_ context.Context, network entity.NetworkDefinition) (port.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chains[network.Name]
	if !ok {
		return nil, &entity.NetworkUnreachableError{Network: network.Name, Err: errors.New("connection refused")}
	}
	return c, nil
}

func (f *fakeConnections) CloseAll() {}

type fakeNetworks map[string]entity.NetworkDefinition

func newFakeNetworks(defs ...entity.NetworkDefinition) fakeNetworks {
	n := fakeNetworks{}
	for _, d := range defs {
		n[d.Name] = d
	}
	return n
}

func (n fakeNetworks) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	out := make([]entity.NetworkDefinition, 0, len(n))
	for _, d := range n {
		out = append(out, d)
	}
	return out
}

func (n fakeNetworks) GetNetworkDefinitionByName(name string) (entity.NetworkDefinition, bool) {
	d, ok := n[name]
	return d, ok
}

// countingResolver counts Resolve calls per key.
type countingResolver struct {
	port.ContractResolver
	calls atomic.Int32
}

func (r *countingResolver) Resolve(ctx context.Context, name string, network entity.NetworkDefinition) (entity.ContractRef, error) {
	r.calls.Add(1)
	return r.ContractResolver.Resolve(ctx, name, network)
}
