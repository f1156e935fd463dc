package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"lrtcore/internal/chain"
)

const totalSupplyABIJSON = `[
  {"inputs": [], "name": "totalSupply", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	totalSupplyABI    abi.ABI
	totalSupplyOnce   sync.Once
	totalSupplyABIErr error
)

func getTotalSupplyABI() (abi.ABI, error) {
	totalSupplyOnce.Do(func() {
		totalSupplyABI, totalSupplyABIErr = abi.JSON(strings.NewReader(totalSupplyABIJSON))
	})
	return totalSupplyABI, totalSupplyABIErr
}

// OnchainSupply reads a deployed receipt token's total supply via eth_call,
// for running the oracle against a live deployment.
type OnchainSupply struct {
	client  *chain.Client
	address common.Address
}

func NewOnchainSupply(client *chain.Client, address common.Address) *OnchainSupply {
	return &OnchainSupply{client: client, address: address}
}

func (s *OnchainSupply) TotalSupply(ctx context.Context) (*big.Int, error) {
	if s.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	supplyABI, err := getTotalSupplyABI()
	if err != nil {
		return nil, err
	}

	data, err := supplyABI.Pack("totalSupply")
	if err != nil {
		return nil, fmt.Errorf("pack totalSupply: %w", err)
	}

	msg := ethereum.CallMsg{To: &s.address, Data: data}
	resp, err := s.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call totalSupply: %w", err)
	}

	values, err := supplyABI.Unpack("totalSupply", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack totalSupply: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("totalSupply return size %d", len(values))
	}
	supply, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("totalSupply unexpected type %T", values[0])
	}
	return supply, nil
}
