package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/infrastructure/network/contract"
	"flarestudio/internal/pkg/testutil/fakechain"
)

func newTestResolver(chains ...*fakechain.Chain) *contractResolverImpl {
	return NewContractResolver(newFakeConnections(chains...), abiregistry.New(), zap.NewNop()).(*contractResolverImpl)
}

func TestResolveReturnsAddressAndInterface(t *testing.T) {
	chain := newChain(flareNet, defaultChainState())
	r := newTestResolver(chain)

	ref, err := r.Resolve(context.Background(), "ftsoregistry", flareNet)
	require.NoError(t, err)

	assert.Equal(t, entity.FtsoRegistry, ref.Name)
	assert.Equal(t, ftsoRegistryAddress, ref.Address)
	assert.NotEqual(t, common.Address{}, ref.Address)
	require.NotNil(t, ref.ABI)
	_, ok := ref.ABI.Methods[abiregistry.MethodGetCurrentPriceWithDecimals]
	assert.True(t, ok)
	assert.Equal(t, entity.BindingKey{Network: "flare", Contract: entity.FtsoRegistry}, ref.Key())
}

func TestResolveUnknownNameMakesNoCall(t *testing.T) {
	chain := newChain(flareNet, defaultChainState())
	r := newTestResolver(chain)

	_, err := r.Resolve(context.Background(), "FtsoRewardManagerX", flareNet)
	require.Error(t, err)

	var unknown *entity.UnknownInterfaceError
	require.True(t, errors.As(err, &unknown))
	assert.Zero(t, chain.Calls(abiregistry.MethodGetContractAddressByName))
}

func TestResolveZeroAddressIsNotFound(t *testing.T) {
	r := newTestResolver(newChain(flareNet, defaultChainState()))

	_, err := r.Resolve(context.Background(), "WNat", flareNet)
	require.Error(t, err)

	kind, ok := entity.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, entity.KindContractNotFound, kind)
	assert.ErrorIs(t, err, errZeroAddress)

	var notFound *entity.ContractNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "WNat", notFound.Contract)
	assert.Equal(t, "flare", notFound.Network)
}

func TestResolveRevertIsNotFoundButReachable(t *testing.T) {
	chain := newChain(flareNet, defaultChainState())
	abis := abiregistry.New()
	chain.Handle(testRegistryAddress, abis.RegistryABI(), abiregistry.MethodGetContractAddressByName, func([]interface{}) ([]interface{}, error) {
		return nil, fakechain.Revert("paused")
	})
	r := newTestResolver(chain)

	_, err := r.Resolve(context.Background(), "FtsoManager", flareNet)
	var notFound *entity.ContractNotFoundError
	require.True(t, errors.As(err, &notFound))
	var unreachable *entity.NetworkUnreachableError
	assert.False(t, errors.As(err, &unreachable))
}

func TestResolveTransportFailureIsAlsoUnreachable(t *testing.T) {
	chain := newChain(flareNet, defaultChainState())
	chain.Handle(testRegistryAddress, abiregistry.New().RegistryABI(), abiregistry.MethodGetContractAddressByName, func([]interface{}) ([]interface{}, error) {
		return nil, fakechain.ErrTransport
	})
	r := newTestResolver(chain)

	_, err := r.Resolve(context.Background(), "FtsoManager", flareNet)
	require.Error(t, err)

	kind, _ := entity.KindOf(err)
	assert.Equal(t, entity.KindContractNotFound, kind)
	var unreachable *entity.NetworkUnreachableError
	assert.True(t, errors.As(err, &unreachable))
}

func TestAsTransportKeepsLocalFailures(t *testing.T) {
	local := &contract.CallError{Contract: registryContractName, Network: "flare", Method: "nope", Local: true, Err: errors.New("method not found")}
	var unreachable *entity.NetworkUnreachableError
	assert.False(t, errors.As(asTransport(flareNet, local), &unreachable))
	assert.True(t, errors.As(asTransport(flareNet, fakechain.ErrTransport), &unreachable))
}

func TestResolveWithoutConnection(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), "FtsoManager", flareNet)
	var notFound *entity.ContractNotFoundError
	require.True(t, errors.As(err, &notFound))
	var unreachable *entity.NetworkUnreachableError
	assert.True(t, errors.As(err, &unreachable))
}

func TestResolveMissingInterfaceForFamily(t *testing.T) {
	r := newTestResolver(newChain(songbirdNet, defaultChainState()))

	_, err := r.Resolve(context.Background(), "Relay", songbirdNet)
	require.Error(t, err)

	kind, ok := entity.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, entity.KindUnknownInterface, kind)
	assert.NotEqual(t, entity.KindContractNotFound, kind)

	var unknown *entity.UnknownInterfaceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, entity.FamilySongbird, unknown.Family)
}

func TestResolveInvalidRegistryAddress(t *testing.T) {
	broken := flareNet
	broken.RegistryAddress = "not-an-address"
	r := newTestResolver(newChain(broken, defaultChainState()))

	_, err := r.Resolve(context.Background(), "FtsoManager", broken)
	var notFound *entity.ContractNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestListContracts(t *testing.T) {
	r := newTestResolver(newChain(flareNet, defaultChainState()))

	entries, err := r.ListContracts(context.Background(), flareNet)
	require.NoError(t, err)
	assert.Equal(t, []entity.RegistryEntry{
		{Name: "FtsoManager", Address: ftsoManagerAddress.Hex()},
		{Name: "FtsoRegistry", Address: ftsoRegistryAddress.Hex()},
	}, entries)
}
