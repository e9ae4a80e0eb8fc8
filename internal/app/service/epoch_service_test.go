package service

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flarestudio/internal/app/port"
	"flarestudio/internal/config"
	"flarestudio/internal/domain/entity"
	"flarestudio/internal/infrastructure/abiregistry"
	"flarestudio/internal/pkg/metrics"
	"flarestudio/internal/pkg/testutil/fakechain"
)

var fixedNow = time.Unix(1_700_000_000, 0)

type epochFixture struct {
	svc     port.EpochService
	binder  port.ContractBinder
	state   *chainState
	manager port.BoundContract
	reg     *prometheus.Registry
}

func newEpochFixture(t *testing.T, lengthSeconds uint64) epochFixture {
	t.Helper()
	st := defaultChainState()
	conns := newFakeConnections(newChain(flareNet, st))
	binder, err := NewContractBinder(
		NewContractResolver(conns, abiregistry.New(), zap.NewNop()),
		conns, newFakeNetworks(flareNet, coston2Net), "flare", nil, zap.NewNop())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Epoch.FallbackLengthSeconds = lengthSeconds
	reg := prometheus.NewRegistry()
	svc, err := NewEpochService(binder, cfg, func() time.Time { return fixedNow }, metrics.New(reg), zap.NewNop())
	require.NoError(t, err)

	manager, err := binder.BindByName(context.Background(), "FtsoManager")
	require.NoError(t, err)
	return epochFixture{svc: svc, binder: binder, state: st, manager: manager, reg: reg}
}

func TestCurrentEpochFromOnChain(t *testing.T) {
	f := newEpochFixture(t, 180)

	info, err := f.svc.CurrentEpochFrom(context.Background(), f.manager)
	require.NoError(t, err)
	assert.Equal(t, entity.EpochInfo{EpochID: 123456, Approximate: false, Source: entity.EpochSourceOnChain, Network: "flare"}, info)
}

func TestCurrentEpochFromFallback(t *testing.T) {
	f := newEpochFixture(t, 180)
	f.state.epochErr = fakechain.ErrTransport

	info, err := f.svc.CurrentEpochFrom(context.Background(), f.manager)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_000/180), info.EpochID)
	assert.True(t, info.Approximate)
	assert.Equal(t, entity.EpochSourceFallback, info.Source)
	assert.NotEmpty(t, info.FallbackReason)
	expected := `
# HELP flarestudio_epoch_fallbacks_total Epoch ids derived from wall-clock time instead of the manager contract.
# TYPE flarestudio_epoch_fallbacks_total counter
flarestudio_epoch_fallbacks_total{network="flare"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "flarestudio_epoch_fallbacks_total"))
}

func TestFallbackUsesConfiguredLength(t *testing.T) {
	f := newEpochFixture(t, 10)
	f.state.epochErr = fakechain.Revert("boom")

	info, err := f.svc.CurrentEpochFrom(context.Background(), f.manager)
	require.NoError(t, err)
	assert.Equal(t, uint64(170_000_000), info.EpochID)
	assert.True(t, info.Approximate)
}

func TestCurrentEpochFallsBackWhenBindingFails(t *testing.T) {
	f := newEpochFixture(t, 90)
	_, err := f.binder.SwitchNetwork("coston2")
	require.NoError(t, err)

	info, err := f.svc.CurrentEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "coston2", info.Network)
	assert.Equal(t, uint64(1_700_000_000/90), info.EpochID)
	assert.Equal(t, entity.EpochSourceFallback, info.Source)
	assert.Contains(t, info.FallbackReason, "coston2")
}

func TestCurrentEpochOnActiveNetwork(t *testing.T) {
	f := newEpochFixture(t, 180)

	info, err := f.svc.CurrentEpoch(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Approximate)
	assert.Equal(t, uint64(123456), info.EpochID)
}

func TestCurrentEpochFromRejectsOversizedId(t *testing.T) {
	f := newEpochFixture(t, 180)
	f.state.epochID = new(big.Int).Lsh(big.NewInt(1), 70)

	_, err := f.svc.CurrentEpochFrom(context.Background(), f.manager)
	require.ErrorIs(t, err, entity.ErrUnexpectedOutput)
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(""), "flarestudio_epoch_fallbacks_total"), "no fallback recorded")
}

func TestVerifyEpochLength(t *testing.T) {
	f := newEpochFixture(t, 180)

	check, err := f.svc.VerifyEpochLength(context.Background())
	require.NoError(t, err)
	assert.True(t, check.Matches)
	assert.Equal(t, uint64(180), check.OnChainSeconds)
	assert.Equal(t, uint64(1658429955), check.FirstEpochStartTs)

	f.state.epochLen = 90
	check, err = f.svc.VerifyEpochLength(context.Background())
	require.NoError(t, err)
	assert.False(t, check.Matches)
	assert.Equal(t, uint64(180), check.ConfiguredSeconds)
}

func TestNewEpochServiceRejectsZeroLength(t *testing.T) {
	cfg := config.Default()
	cfg.Epoch.FallbackLengthSeconds = 0
	_, err := NewEpochService(nil, cfg, nil, nil, zap.NewNop())
	assert.Error(t, err)
}
