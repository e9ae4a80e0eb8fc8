package rpcprobe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"flarestudio/internal/domain/entity"
)

func startFakeNode(t *testing.T, chainID string) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	handler := func(ctx *fasthttp.RequestCtx) {
		var req rpcRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		resp := rpcResponse{ID: req.ID}
		switch req.Method {
		case "eth_chainId":
			resp.Result = chainID
		case "eth_blockNumber":
			resp.Result = "0x1b4"
		default:
			resp.Error = &rpcError{Code: -32601, Message: "method not found"}
		}
		body, _ := json.Marshal(resp)
		ctx.SetContentType("application/json")
		ctx.SetBody(body)
	}
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func TestProbeReportsChainAndBlock(t *testing.T) {
	p := newProber(startFakeNode(t, "0x72"), time.Second, zap.NewNop())

	results, err := p.Probe(context.Background(), entity.NetworkDefinition{
		Name: "coston2", ChainID: 114, PrimaryRPCURL: "http://node.test/ext/C/rpc",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Empty(t, r.Error)
	assert.Equal(t, uint64(114), r.ChainID)
	assert.Equal(t, uint64(436), r.BlockNumber)
	assert.True(t, r.ChainIDMatches)
	assert.Equal(t, "http://node.test/ext/C/rpc", r.Endpoint)
}

func TestProbeFlagsChainMismatch(t *testing.T) {
	p := newProber(startFakeNode(t, "0xe"), time.Second, zap.NewNop())

	results, err := p.Probe(context.Background(), entity.NetworkDefinition{
		Name: "coston2", ChainID: 114, PrimaryRPCURL: "http://node.test/rpc",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(14), results[0].ChainID)
	assert.False(t, results[0].ChainIDMatches)
}

func TestProbeWithoutEndpoints(t *testing.T) {
	p := NewProber(time.Second, zap.NewNop())
	_, err := p.Probe(context.Background(), entity.NetworkDefinition{Name: "flare"})
	assert.Error(t, err)
}

func TestParseQuantity(t *testing.T) {
	v, err := parseQuantity("0x13")
	require.NoError(t, err)
	assert.Equal(t, uint64(19), v)

	_, err = parseQuantity("19")
	assert.Error(t, err)
	_, err = parseQuantity("0x")
	assert.Error(t, err)
}
