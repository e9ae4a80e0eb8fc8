package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/pkg/testutil/fakechain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	coston2 = entity.NetworkDefinition{Name: "coston2", ChainID: 114, Family: entity.FamilyFlare}
	ftsoReg = common.HexToAddress("0x48Da21ce34966A64E267CeFb78012C0282D0Ac87")
)

func newFtsoRegistry(t *testing.T, chain *fakechain.Chain) *boundContract {
	t.Helper()
	a, ok := abiregistry.New().Lookup(entity.FtsoRegistry, entity.FamilyFlare)
	require.True(t, ok)
	ref := entity.ContractRef{Name: entity.FtsoRegistry, Network: coston2, Address: ftsoReg, ABI: a}
	return New(ref, chain).(*boundContract)
}

func TestCallUnpacksOutputs(t *testing.T) {
	chain := fakechain.New(coston2)
	b := newFtsoRegistry(t, chain)
	chain.Handle(ftsoReg, b.ref.ABI, abiregistry.MethodGetCurrentPriceWithDecimals, func(args []interface{}) ([]interface{}, error) {
		assert.Equal(t, "BTC", args[0])
		return []interface{}{big.NewInt(6512345), big.NewInt(1700000000), big.NewInt(2)}, nil
	})

	out, err := b.Call(context.Background(), abiregistry.MethodGetCurrentPriceWithDecimals, "BTC")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Zero(t, big.NewInt(6512345).Cmp(out[0].(*big.Int)))
	assert.Equal(t, 1, chain.Calls(abiregistry.MethodGetCurrentPriceWithDecimals))
}

func TestCallClassifiesRevertWithReason(t *testing.T) {
	chain := fakechain.New(coston2)
	b := newFtsoRegistry(t, chain)
	chain.Handle(ftsoReg, b.ref.ABI, abiregistry.MethodGetCurrentPriceWithDecimals, func([]interface{}) ([]interface{}, error) {
		return nil, fakechain.Revert("FTSO index not supported")
	})

	_, err := b.Call(context.Background(), abiregistry.MethodGetCurrentPriceWithDecimals, "NOPE")
	require.Error(t, err)
	reason, reverted := IsRevert(err)
	assert.True(t, reverted)
	assert.Equal(t, "FTSO index not supported", reason)
}

func TestCallClassifiesTransportFailure(t *testing.T) {
	chain := fakechain.New(coston2)
	b := newFtsoRegistry(t, chain)
	chain.Handle(ftsoReg, b.ref.ABI, abiregistry.MethodGetCurrentPriceWithDecimals, func([]interface{}) ([]interface{}, error) {
		return nil, fakechain.ErrTransport
	})

	_, err := b.Call(context.Background(), abiregistry.MethodGetCurrentPriceWithDecimals, "BTC")
	require.Error(t, err)
	_, reverted := IsRevert(err)
	assert.False(t, reverted)
	assert.True(t, errors.Is(err, fakechain.ErrTransport))
}

func TestCallCanceledContextIsTransport(t *testing.T) {
	chain := fakechain.New(coston2)
	b := newFtsoRegistry(t, chain)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Call(ctx, abiregistry.MethodGetSupportedSymbols)
	require.Error(t, err)
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.False(t, callErr.Reverted)
}

func TestCallWithoutCodeIsUndecodable(t *testing.T) {
	chain := fakechain.New(coston2)
	b := newFtsoRegistry(t, chain)

	_, err := b.Call(context.Background(), abiregistry.MethodGetSupportedSymbols)
	reason, reverted := IsRevert(err)
	assert.True(t, reverted)
	assert.Equal(t, "undecodable output", reason)
}

func TestCallUnknownMethodIsLocal(t *testing.T) {
	chain := fakechain.New(coston2)
	b := newFtsoRegistry(t, chain)

	_, err := b.Call(context.Background(), abiregistry.MethodGetCurrentPriceEpochID)
	require.Error(t, err)
	assert.True(t, IsLocal(err))
	_, reverted := IsRevert(err)
	assert.False(t, reverted)
	assert.Zero(t, chain.Calls(abiregistry.MethodGetCurrentPriceEpochID))
}

func TestCallWithoutInterfaceIsLocal(t *testing.T) {
	chain := fakechain.New(coston2)
	h := New(entity.ContractRef{Name: entity.WNat, Network: coston2, Address: ftsoReg}, chain)

	_, err := h.Call(context.Background(), abiregistry.MethodGetSupportedSymbols)
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.True(t, callErr.Local)
	assert.Contains(t, err.Error(), "local failure")
}

func TestClassifyPlainRevertMessage(t *testing.T) {
	reverted, reason := classifyCallError(errors.New("execution reverted: Price not found"))
	assert.True(t, reverted)
	assert.Equal(t, "Price not found", reason)

	reverted, _ = classifyCallError(context.DeadlineExceeded)
	assert.False(t, reverted)
}
