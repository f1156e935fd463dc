package feeds

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

const priceFeedABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "asset", "type": "address"}], "name": "getAssetPrice", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	priceFeedABI    abi.ABI
	priceFeedOnce   sync.Once
	priceFeedABIErr error
)

func getPriceFeedABI() (abi.ABI, error) {
	priceFeedOnce.Do(func() {
		priceFeedABI, priceFeedABIErr = abi.JSON(strings.NewReader(priceFeedABIJSON))
	})
	return priceFeedABI, priceFeedABIErr
}

// OnchainFeed reads a price feed adapter contract through eth_call.
type OnchainFeed struct {
	client  *chain.Client
	address common.Address
}

func NewOnchainFeed(client *chain.Client, address common.Address) *OnchainFeed {
	return &OnchainFeed{client: client, address: address}
}

// Address returns the adapter contract address backing this feed.
func (f *OnchainFeed) Address() common.Address {
	return f.address
}

func (f *OnchainFeed) AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	if f.client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	feedABI, err := getPriceFeedABI()
	if err != nil {
		return nil, err
	}

	data, err := feedABI.Pack("getAssetPrice", asset)
	if err != nil {
		return nil, fmt.Errorf("pack getAssetPrice: %w", err)
	}

	msg := ethereum.CallMsg{To: &f.address, Data: data}
	resp, err := f.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call getAssetPrice: %w", err)
	}

	values, err := feedABI.Unpack("getAssetPrice", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack getAssetPrice: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("getAssetPrice return size %d", len(values))
	}
	rate, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAssetPrice unexpected type %T", values[0])
	}
	return rate, nil
}
