// Package rpcprobe checks Flare RPC endpoints with raw JSON-RPC requests.
package rpcprobe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"flarestudio/internal/app/port"
	"flarestudio/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     uint64    `json:"id"`
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

// proberImpl implements port.RPCProber over fasthttp.
type proberImpl struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
	nextID  atomic.Uint64
}

// NewProber creates a prober whose requests time out after timeout unless ctx has an earlier deadline.
func NewProber(timeout time.Duration, logger *zap.Logger) port.RPCProber {
	return newProber(&fasthttp.Client{Name: "flarestudio-probe"}, timeout, logger)
}

func newProber(client *fasthttp.Client, timeout time.Duration, logger *zap.Logger) *proberImpl {
	return &proberImpl{client: client, timeout: timeout, logger: logger.Named("RPCProber")}
}

// Probe queries eth_chainId and eth_blockNumber on every endpoint of network.
// Endpoint failures are reported per result; the error is only for a network without endpoints.
func (p *proberImpl) Probe(ctx context.Context, network entity.NetworkDefinition) ([]entity.ProbeResult, error) {
	urls := network.RPCURLs()
	if len(urls) == 0 {
		return nil, fmt.Errorf("network %s has no RPC endpoints", network.Name)
	}
	results := make([]entity.ProbeResult, 0, len(urls))
	for _, u := range urls {
		results = append(results, p.probeEndpoint(ctx, network, u))
	}
	return results, nil
}

func (p *proberImpl) probeEndpoint(ctx context.Context, network entity.NetworkDefinition, endpoint string) entity.ProbeResult {
	res := entity.ProbeResult{Network: network.Name, Endpoint: endpoint}
	start := time.Now()

	chainHex, err := p.call(ctx, endpoint, "eth_chainId")
	if err != nil {
		res.Error = err.Error()
		res.Latency = time.Since(start)
		return res
	}
	res.ChainID, err = parseQuantity(chainHex)
	if err != nil {
		res.Error = fmt.Sprintf("eth_chainId: %v", err)
		res.Latency = time.Since(start)
		return res
	}
	res.ChainIDMatches = res.ChainID == network.ChainID

	blockHex, err := p.call(ctx, endpoint, "eth_blockNumber")
	res.Latency = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if res.BlockNumber, err = parseQuantity(blockHex); err != nil {
		res.Error = fmt.Sprintf("eth_blockNumber: %v", err)
	}

	p.logger.Debug("Probed endpoint",
		zap.String("network", network.Name),
		zap.String("endpoint", endpoint),
		zap.Uint64("chain_id", res.ChainID),
		zap.Uint64("block", res.BlockNumber),
		zap.Duration("latency", res.Latency))
	return res
}

func (p *proberImpl) call(ctx context.Context, endpoint, method string) (string, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: p.nextID.Add(1), Method: method, Params: []interface{}{}})
	if err != nil {
		return "", fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if !ok || (p.timeout > 0 && time.Until(deadline) > p.timeout) {
		deadline = time.Now().Add(p.timeout)
	}
	if err := p.client.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("failed to execute %s request to %s: %w", method, endpoint, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("%s request to %s failed with status %d", method, endpoint, resp.StatusCode())
	}

	var out rpcResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("failed to decode %s response from %s: %w", method, endpoint, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%s returned error %d: %s", method, out.Error.Code, out.Error.Message)
	}
	return out.Result, nil
}

// parseQuantity decodes a 0x-prefixed JSON-RPC quantity.
func parseQuantity(s string) (uint64, error) {
	if !strings.HasPrefix(s, "0x") || len(s) < 3 {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return strconv.ParseUint(s[2:], 16, 64)
}
