package pool

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryPool is an in-process DepositPool used for local wiring and tests.
type MemoryPool struct {
	mu       sync.RWMutex
	nodes    []common.Address
	deposits map[common.Address]*big.Int
}

func NewMemoryPool() *MemoryPool {
	return &MemoryPool{deposits: make(map[common.Address]*big.Int)}
}

// AddNodeDelegator appends a node to the delegator queue.
func (p *MemoryPool) AddNodeDelegator(node common.Address) {
	p.mu.Lock()
	p.nodes = append(p.nodes, node)
	p.mu.Unlock()
}

// SetAssetDeposits overwrites the deposited amount recorded for asset.
func (p *MemoryPool) SetAssetDeposits(asset common.Address, amount *big.Int) {
	p.mu.Lock()
	p.deposits[asset] = new(big.Int).Set(amount)
	p.mu.Unlock()
}

func (p *MemoryPool) NodeDelegatorQueue(ctx context.Context) ([]common.Address, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]common.Address, len(p.nodes))
	copy(out, p.nodes)
	return out, nil
}

func (p *MemoryPool) TotalAssetDeposits(ctx context.Context, asset common.Address) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if amount, ok := p.deposits[asset]; ok {
		return new(big.Int).Set(amount), nil
	}
	return big.NewInt(0), nil
}

// MemoryStrategy is an in-process Strategy with settable per-node balances.
type MemoryStrategy struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
}

func NewMemoryStrategy() *MemoryStrategy {
	return &MemoryStrategy{balances: make(map[common.Address]*big.Int)}
}

func (s *MemoryStrategy) SetUserBalance(node common.Address, amount *big.Int) {
	s.mu.Lock()
	s.balances[node] = new(big.Int).Set(amount)
	s.mu.Unlock()
}

func (s *MemoryStrategy) UserUnderlyingView(ctx context.Context, node common.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if amount, ok := s.balances[node]; ok {
		return new(big.Int).Set(amount), nil
	}
	return big.NewInt(0), nil
}

// MemoryResolver maps strategy addresses to registered in-process strategies.
// Unregistered addresses resolve to an empty strategy reporting zero.
type MemoryResolver struct {
	mu         sync.RWMutex
	strategies map[common.Address]Strategy
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{strategies: make(map[common.Address]Strategy)}
}

func (r *MemoryResolver) Register(addr common.Address, strategy Strategy) {
	r.mu.Lock()
	r.strategies[addr] = strategy
	r.mu.Unlock()
}

func (r *MemoryResolver) StrategyAt(addr common.Address) Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if strategy, ok := r.strategies[addr]; ok {
		return strategy
	}
	return emptyStrategy{}
}

type emptyStrategy struct{}

func (emptyStrategy) UserUnderlyingView(ctx context.Context, node common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}
