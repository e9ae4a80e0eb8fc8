// Package fakechain is an in-memory port.Connection for tests.
// It decodes eth_call data with real ABIs and answers from registered handlers.
package fakechain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"sync"

	"flarestudio/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Handler answers one contract method. Returned values must match the ABI outputs.
type Handler func(args []interface{}) ([]interface{}, error)

// ErrTransport simulates an unreachable node.
var ErrTransport = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

// RevertError mimics the JSON-RPC error geth returns for a reverted eth_call.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string { return "execution reverted: " + e.Reason }

func (e *RevertError) ErrorCode() int { return 3 }

// ErrorData returns the ABI-encoded Error(string) payload.
func (e *RevertError) ErrorData() interface{} {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(e.Reason)
	if err != nil {
		return nil
	}
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	return hexutil.Encode(append(selector, packed...))
}

// Revert builds a handler error for reason.
func Revert(reason string) error {
	return &RevertError{Reason: reason}
}

type fakeContract struct {
	abi      *abi.ABI
	handlers map[string]Handler
}

// Chain is a fake network.
type Chain struct {
	mu        sync.Mutex
	network   entity.NetworkDefinition
	contracts map[common.Address]*fakeContract
	calls     map[string]int
	closed    bool
}

// New creates an empty fake chain for network.
func New(network entity.NetworkDefinition) *Chain {
	return &Chain{
		network:   network,
		contracts: make(map[common.Address]*fakeContract),
		calls:     make(map[string]int),
	}
}

// Handle registers h for method of the contract at addr described by a.
func (c *Chain) Handle(addr common.Address, a *abi.ABI, method string, h Handler) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	fc, ok := c.contracts[addr]
	if !ok {
		fc = &fakeContract{abi: a, handlers: make(map[string]Handler)}
		c.contracts[addr] = fc
	}
	fc.handlers[method] = h
	return c
}

// Calls returns how many times method was invoked on any contract.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Closed reports whether Close was called.
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Definition implements port.Connection.
func (c *Chain) Definition() entity.NetworkDefinition {
	return c.network
}

// Close implements port.Connection.
func (c *Chain) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// CallContract implements port.Connection.
func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil {
		return nil, errors.New("fakechain: call without target")
	}

	c.mu.Lock()
	fc, ok := c.contracts[*msg.To]
	c.mu.Unlock()
	if !ok {
		// Calling an address without code returns empty output.
		return []byte{}, nil
	}
	if len(msg.Data) < 4 {
		return nil, &RevertError{Reason: "missing selector"}
	}
	method, err := fc.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, &RevertError{Reason: "unknown selector"}
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("fakechain: unpack %s inputs: %w", method.Name, err)
	}

	c.mu.Lock()
	c.calls[method.Name]++
	h := fc.handlers[method.Name]
	c.mu.Unlock()

	if h == nil {
		return nil, &RevertError{Reason: method.Name + " not mocked"}
	}
	out, err := h(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}
