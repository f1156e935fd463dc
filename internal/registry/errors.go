package registry

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAddress              = errors.New("registry: invalid address")
	ErrAssetAlreadySupported       = errors.New("registry: asset already supported")
	ErrAssetNotSupported           = errors.New("registry: asset not supported")
	ErrValueUnchanged              = errors.New("registry: value unchanged")
	ErrAddressNotSet               = errors.New("registry: address not set")
	ErrStrategyHasOutstandingFunds = errors.New("registry: strategy has outstanding funds")
)

// OutstandingFundsError reports the first node whose balance under the old
// strategy blocks a rebind.
type OutstandingFundsError struct {
	Node    common.Address
	Balance *big.Int
}

func (e *OutstandingFundsError) Error() string {
	return fmt.Sprintf("%v: node %s holds %s", ErrStrategyHasOutstandingFunds, e.Node.Hex(), e.Balance.String())
}

func (e *OutstandingFundsError) Unwrap() error {
	return ErrStrategyHasOutstandingFunds
}
