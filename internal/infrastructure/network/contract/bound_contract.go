// Package contract implements invocable contract handles on top of a port.Connection.
package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flarestudio/internal/app/port"
	"flarestudio/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// JSON-RPC error code geth uses for reverted calls.
const revertErrorCode = 3

// CallError describes a failed contract call.
// Reverted distinguishes a call the chain rejected from a transport failure.
// Local marks a call that never left the process because the handle's interface cannot encode it.
type CallError struct {
	Contract entity.ContractName
	Network  string
	Method   string
	Reverted bool
	Local    bool
	Reason   string
	Err      error
}

func (e *CallError) Error() string {
	kind := "transport failure"
	if e.Local {
		kind = "local failure"
	}
	if e.Reverted {
		kind = "reverted"
		if e.Reason != "" {
			kind += ": " + e.Reason
		}
	}
	return fmt.Sprintf("%s.%s on %s %s: %v", e.Contract, e.Method, e.Network, kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// IsRevert reports whether err is a reverted contract call, returning the revert reason.
func IsRevert(err error) (string, bool) {
	var callErr *CallError
	if errors.As(err, &callErr) && callErr.Reverted {
		return callErr.Reason, true
	}
	return "", false
}

// IsLocal reports whether err is a call that could not be encoded against the handle's interface.
// Such failures are permanent until the interface or the method name changes.
func IsLocal(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr) && callErr.Local
}

type boundContract struct {
	ref  entity.ContractRef
	conn port.Connection
}

// New combines a resolved reference and a connection into a handle.
func New(ref entity.ContractRef, conn port.Connection) port.BoundContract {
	return &boundContract{ref: ref, conn: conn}
}

func (b *boundContract) Ref() entity.ContractRef {
	return b.ref
}

func (b *boundContract) Connection() port.Connection {
	return b.conn
}

// Call implements port.BoundContract.
func (b *boundContract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if b.ref.ABI == nil {
		return nil, b.localError(method, errors.New("handle has no interface"))
	}
	data, err := b.ref.ABI.Pack(method, args...)
	if err != nil {
		return nil, b.localError(method, fmt.Errorf("failed to pack: %w", err))
	}

	to := b.ref.Address
	out, err := b.conn.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		reverted, reason := classifyCallError(err)
		return nil, &CallError{
			Contract: b.ref.Name,
			Network:  b.ref.Network.Name,
			Method:   method,
			Reverted: reverted,
			Reason:   reason,
			Err:      err,
		}
	}

	values, err := b.ref.ABI.Unpack(method, out)
	if err != nil {
		// Empty or malformed output: the target is not the expected contract.
		return nil, &CallError{
			Contract: b.ref.Name,
			Network:  b.ref.Network.Name,
			Method:   method,
			Reverted: true,
			Reason:   "undecodable output",
			Err:      err,
		}
	}
	return values, nil
}

func (b *boundContract) localError(method string, err error) *CallError {
	return &CallError{
		Contract: b.ref.Name,
		Network:  b.ref.Network.Name,
		Method:   method,
		Local:    true,
		Err:      err,
	}
}

func classifyCallError(err error) (reverted bool, reason string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false, ""
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if rpcErr.ErrorCode() == revertErrorCode || strings.Contains(strings.ToLower(rpcErr.Error()), "revert") {
			return true, revertReason(err)
		}
		return false, ""
	}
	if strings.Contains(strings.ToLower(err.Error()), "execution reverted") {
		return true, revertReason(err)
	}
	return false, ""
}

func revertReason(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if encoded, ok := dataErr.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(encoded); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}
	msg := err.Error()
	const marker = "execution reverted:"
	if idx := strings.Index(msg, marker); idx >= 0 {
		return strings.TrimSpace(msg[idx+len(marker):])
	}
	return ""
}
