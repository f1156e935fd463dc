package registry

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"lrtcore/internal/events"
	"lrtcore/internal/pool"
	"lrtcore/internal/roles"
)

type roleChecker interface {
	Check(role roles.Role, account common.Address) error
}

// AssetEntry records the accepted-asset configuration for one collateral
// asset. DepositCeiling is an admission-control bound consumed by the
// deposit pool, not enforced here.
type AssetEntry struct {
	Supported      bool
	DepositCeiling *big.Int
	Strategy       common.Address
}

// Registry tracks accepted collateral assets, their ceilings and assigned
// strategies, plus logical token/contract address lookups used to wire
// collaborating components by name. Assets are never removed; the supported
// list grows monotonically in registration order.
type Registry struct {
	mu         sync.RWMutex
	auth       roleChecker
	pool       pool.DepositPool
	strategies pool.StrategyResolver
	emitter    events.Emitter

	assets    map[common.Address]*AssetEntry
	list      []common.Address
	tokens    map[string]common.Address
	contracts map[string]common.Address
}

func New(auth roleChecker, depositPool pool.DepositPool, strategies pool.StrategyResolver, emitter events.Emitter) *Registry {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Registry{
		auth:       auth,
		pool:       depositPool,
		strategies: strategies,
		emitter:    emitter,
		assets:     make(map[common.Address]*AssetEntry),
		tokens:     make(map[string]common.Address),
		contracts:  make(map[string]common.Address),
	}
}

// AddSupportedAsset registers a new collateral asset with its deposit
// ceiling. Registration is irreversible.
func (r *Registry) AddSupportedAsset(caller, asset common.Address, depositCeiling *big.Int) error {
	if err := r.auth.Check(roles.RoleDefaultAdmin, caller); err != nil {
		return err
	}
	if asset == (common.Address{}) {
		return ErrInvalidAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[asset]; ok {
		return fmt.Errorf("%w: %s", ErrAssetAlreadySupported, asset.Hex())
	}

	ceiling := big.NewInt(0)
	if depositCeiling != nil {
		ceiling = new(big.Int).Set(depositCeiling)
	}
	r.assets[asset] = &AssetEntry{Supported: true, DepositCeiling: ceiling}
	r.list = append(r.list, asset)

	r.emitter.Emit(events.New("asset_added", map[string]string{
		"asset":           asset.Hex(),
		"deposit_ceiling": ceiling.String(),
	}))
	return nil
}

// UpdateDepositLimit overwrites the deposit ceiling for a supported asset.
// No bounds check against current deposits: the ceiling is advisory input
// for admission control elsewhere.
func (r *Registry) UpdateDepositLimit(caller, asset common.Address, depositCeiling *big.Int) error {
	if err := r.auth.Check(roles.RoleManager, caller); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.assets[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotSupported, asset.Hex())
	}

	ceiling := big.NewInt(0)
	if depositCeiling != nil {
		ceiling = new(big.Int).Set(depositCeiling)
	}
	entry.DepositCeiling = ceiling

	r.emitter.Emit(events.New("deposit_limit_updated", map[string]string{
		"asset":           asset.Hex(),
		"deposit_ceiling": ceiling.String(),
	}))
	return nil
}

// UpdateAssetStrategy assigns a new strategy to a supported asset. When a
// previous strategy exists, every node in the deposit pool's delegator queue
// must report a zero balance under it; any outstanding funds abort the
// rebind with the offending node and balance. The cross-check is synchronous
// and the whole operation fails atomically if any read fails.
func (r *Registry) UpdateAssetStrategy(ctx context.Context, caller, asset, strategy common.Address) error {
	if err := r.auth.Check(roles.RoleDefaultAdmin, caller); err != nil {
		return err
	}
	if strategy == (common.Address{}) {
		return ErrInvalidAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.assets[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotSupported, asset.Hex())
	}
	if entry.Strategy == strategy {
		return ErrValueUnchanged
	}

	if entry.Strategy != (common.Address{}) {
		nodes, err := r.pool.NodeDelegatorQueue(ctx)
		if err != nil {
			return fmt.Errorf("node delegator queue: %w", err)
		}
		old := r.strategies.StrategyAt(entry.Strategy)
		for _, node := range nodes {
			balance, err := old.UserUnderlyingView(ctx, node)
			if err != nil {
				return fmt.Errorf("strategy balance for node %s: %w", node.Hex(), err)
			}
			if balance.Sign() != 0 {
				return &OutstandingFundsError{Node: node, Balance: balance}
			}
		}
	}

	previous := entry.Strategy
	entry.Strategy = strategy

	r.emitter.Emit(events.New("asset_strategy_updated", map[string]string{
		"asset":        asset.Hex(),
		"old_strategy": previous.Hex(),
		"new_strategy": strategy.Hex(),
	}))
	return nil
}

// SetToken binds a logical token key to an address.
func (r *Registry) SetToken(caller common.Address, key string, addr common.Address) error {
	if err := r.auth.Check(roles.RoleDefaultAdmin, caller); err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return ErrInvalidAddress
	}
	r.mu.Lock()
	r.tokens[key] = addr
	r.mu.Unlock()
	return nil
}

// SetContract binds a logical contract key to an address.
func (r *Registry) SetContract(caller common.Address, key string, addr common.Address) error {
	if err := r.auth.Check(roles.RoleDefaultAdmin, caller); err != nil {
		return err
	}
	if addr == (common.Address{}) {
		return ErrInvalidAddress
	}
	r.mu.Lock()
	r.contracts[key] = addr
	r.mu.Unlock()
	return nil
}

// Token resolves a logical token key.
func (r *Registry) Token(key string) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.tokens[key]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: token %q", ErrAddressNotSet, key)
	}
	return addr, nil
}

// Contract resolves a logical contract key.
func (r *Registry) Contract(key string) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.contracts[key]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: contract %q", ErrAddressNotSet, key)
	}
	return addr, nil
}

// SupportedAssets returns a snapshot of the supported-asset list in
// registration order. The caller owns the copy.
func (r *Registry) SupportedAssets() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, len(r.list))
	copy(out, r.list)
	return out
}

// IsSupported reports whether asset is registered.
func (r *Registry) IsSupported(asset common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.assets[asset]
	return ok && entry.Supported
}

// DepositCeiling returns the configured ceiling for a supported asset.
func (r *Registry) DepositCeiling(asset common.Address) (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.assets[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotSupported, asset.Hex())
	}
	return new(big.Int).Set(entry.DepositCeiling), nil
}

// Strategy returns the strategy currently assigned to a supported asset.
// The zero address means no strategy has been assigned yet.
func (r *Registry) Strategy(asset common.Address) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.assets[asset]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrAssetNotSupported, asset.Hex())
	}
	return entry.Strategy, nil
}
