package pool

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

const depositPoolABIJSON = `[
  {"inputs": [], "name": "getNodeDelegatorQueue", "outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "asset", "type": "address"}], "name": "getTotalAssetDeposits", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const strategyABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "userUnderlyingView", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	depositPoolABI    abi.ABI
	depositPoolOnce   sync.Once
	depositPoolABIErr error

	strategyABI    abi.ABI
	strategyOnce   sync.Once
	strategyABIErr error
)

func getDepositPoolABI() (abi.ABI, error) {
	depositPoolOnce.Do(func() {
		depositPoolABI, depositPoolABIErr = abi.JSON(strings.NewReader(depositPoolABIJSON))
	})
	return depositPoolABI, depositPoolABIErr
}

func getStrategyABI() (abi.ABI, error) {
	strategyOnce.Do(func() {
		strategyABI, strategyABIErr = abi.JSON(strings.NewReader(strategyABIJSON))
	})
	return strategyABI, strategyABIErr
}

// OnchainPool reads the deposit pool contract through eth_call.
type OnchainPool struct {
	client  *chain.Client
	address common.Address
}

func NewOnchainPool(client *chain.Client, address common.Address) *OnchainPool {
	return &OnchainPool{client: client, address: address}
}

func (p *OnchainPool) NodeDelegatorQueue(ctx context.Context) ([]common.Address, error) {
	if p.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	poolABI, err := getDepositPoolABI()
	if err != nil {
		return nil, err
	}

	data, err := poolABI.Pack("getNodeDelegatorQueue")
	if err != nil {
		return nil, fmt.Errorf("pack getNodeDelegatorQueue: %w", err)
	}

	msg := ethereum.CallMsg{To: &p.address, Data: data}
	resp, err := p.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call getNodeDelegatorQueue: %w", err)
	}

	values, err := poolABI.Unpack("getNodeDelegatorQueue", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack getNodeDelegatorQueue: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("getNodeDelegatorQueue return size %d", len(values))
	}
	nodes, ok := values[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("getNodeDelegatorQueue unexpected type %T", values[0])
	}
	return nodes, nil
}

func (p *OnchainPool) TotalAssetDeposits(ctx context.Context, asset common.Address) (*big.Int, error) {
	if p.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	poolABI, err := getDepositPoolABI()
	if err != nil {
		return nil, err
	}
	return callUint256(ctx, p.client, poolABI, p.address, "getTotalAssetDeposits", asset)
}

// OnchainStrategy reads a strategy contract's per-node balance view.
type OnchainStrategy struct {
	client  *chain.Client
	address common.Address
}

func NewOnchainStrategy(client *chain.Client, address common.Address) *OnchainStrategy {
	return &OnchainStrategy{client: client, address: address}
}

func (s *OnchainStrategy) UserUnderlyingView(ctx context.Context, node common.Address) (*big.Int, error) {
	if s.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	stratABI, err := getStrategyABI()
	if err != nil {
		return nil, err
	}
	return callUint256(ctx, s.client, stratABI, s.address, "userUnderlyingView", node)
}

// OnchainResolver builds OnchainStrategy handles on demand.
type OnchainResolver struct {
	client *chain.Client
}

func NewOnchainResolver(client *chain.Client) *OnchainResolver {
	return &OnchainResolver{client: client}
}

func (r *OnchainResolver) StrategyAt(addr common.Address) Strategy {
	return NewOnchainStrategy(r.client, addr)
}

func callUint256(ctx context.Context, client *chain.Client, contractABI abi.ABI, contract common.Address, method string, args ...interface{}) (*big.Int, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &contract, Data: data}
	resp, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s unexpected type %T", method, values[0])
	}
	return value, nil
}
