package abiregistry

import (
	"testing"

	"flarestudio/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFlareFamilyHasAllContracts(t *testing.T) {
	r := New()
	for _, name := range entity.KnownContractNames() {
		a, ok := r.Lookup(name, entity.FamilyFlare)
		require.Truef(t, ok, "missing %s", name)
		require.NotNil(t, a)
	}
}

func TestLookupSongbirdFamilyHasNoRelay(t *testing.T) {
	r := New()
	_, ok := r.Lookup(entity.Relay, entity.FamilySongbird)
	assert.False(t, ok)
	assert.NotContains(t, r.Names(entity.FamilySongbird), entity.Relay)
}

func TestLookupUnknownFamily(t *testing.T) {
	_, ok := New().Lookup(entity.FtsoRegistry, entity.NetworkFamily("avalanche"))
	assert.False(t, ok)
}

func TestMethodsPresent(t *testing.T) {
	r := New()
	ftso, _ := r.Lookup(entity.FtsoRegistry, entity.FamilyFlare)
	method, ok := ftso.Methods[MethodGetCurrentPriceWithDecimals]
	require.True(t, ok)
	assert.Len(t, method.Outputs, 3)

	manager, _ := r.Lookup(entity.FtsoManager, entity.FamilySongbird)
	_, ok = manager.Methods[MethodGetCurrentPriceEpochID]
	assert.True(t, ok)
	_, ok = manager.Methods[MethodGetPriceEpochConfiguration]
	assert.True(t, ok)

	_, ok = r.RegistryABI().Methods[MethodGetContractAddressByName]
	assert.True(t, ok)
}
