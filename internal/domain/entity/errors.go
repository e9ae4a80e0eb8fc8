package entity

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates gateway failures without string matching.
type ErrorKind string

const (
	KindContractNotFound   ErrorKind = "contract_not_found"
	KindUnknownInterface   ErrorKind = "unknown_interface"
	KindPriceUnavailable   ErrorKind = "price_unavailable"
	KindNetworkUnreachable ErrorKind = "network_unreachable"
)

var (
	// ErrUnknownNetwork is returned when a network name is not configured.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrUnexpectedOutput is returned when a contract call succeeded but its value cannot be used.
	ErrUnexpectedOutput = errors.New("unexpected contract output")
)

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the outermost typed error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}

// ContractNotFoundError means the registry holds no usable address for a name on a network.
// It is a deployment condition and must not be retried automatically.
type ContractNotFoundError struct {
	Contract string
	Network  string
	Err      error
}

func (e *ContractNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("contract %s not found on %s: %v", e.Contract, e.Network, e.Err)
	}
	return fmt.Sprintf("contract %s not found on %s", e.Contract, e.Network)
}

func (e *ContractNotFoundError) Unwrap() error { return e.Err }

func (e *ContractNotFoundError) Kind() ErrorKind { return KindContractNotFound }

// UnknownInterfaceError means there is no local interface description for a contract name.
type UnknownInterfaceError struct {
	Contract string
	Network  string
	Family   NetworkFamily
}

func (e *UnknownInterfaceError) Error() string {
	if e.Family != "" {
		return fmt.Sprintf("no interface for contract %q on %s (family %s)", e.Contract, e.Network, e.Family)
	}
	return fmt.Sprintf("no interface for contract %q on %s", e.Contract, e.Network)
}

func (e *UnknownInterfaceError) Kind() ErrorKind { return KindUnknownInterface }

// PriceFailureCause tells callers whether a failed price lookup is worth retrying.
type PriceFailureCause string

const (
	CauseTransport         PriceFailureCause = "transport"
	CauseUnsupportedSymbol PriceFailureCause = "unsupportedSymbol"
	CauseRevert            PriceFailureCause = "revert"
)

// PriceUnavailableError is returned when a price could not be fetched.
type PriceUnavailableError struct {
	Symbol  string
	Network string
	Cause   PriceFailureCause
	Err     error
}

func (e *PriceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("price for %s on %s unavailable (%s): %v", e.Symbol, e.Network, e.Cause, e.Err)
	}
	return fmt.Sprintf("price for %s on %s unavailable (%s)", e.Symbol, e.Network, e.Cause)
}

func (e *PriceUnavailableError) Unwrap() error { return e.Err }

func (e *PriceUnavailableError) Kind() ErrorKind { return KindPriceUnavailable }

// Retryable reports whether the failure is transient.
func (e *PriceUnavailableError) Retryable() bool { return e.Cause == CauseTransport }

// NetworkUnreachableError means no RPC endpoint of a network answered.
type NetworkUnreachableError struct {
	Network  string
	Endpoint string
	Err      error
}

func (e *NetworkUnreachableError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network %s unreachable at %s: %v", e.Network, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network %s unreachable: %v", e.Network, e.Err)
}

func (e *NetworkUnreachableError) Unwrap() error { return e.Err }

func (e *NetworkUnreachableError) Kind() ErrorKind { return KindNetworkUnreachable }
