package token

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"lrtcore/internal/events"
	"lrtcore/internal/roles"
)

type roleChecker interface {
	Check(role roles.Role, account common.Address) error
}

// ReceiptToken is the supply-elastic token representing proportional claim
// on pooled collateral. Supply moves only through role-gated mint and burn;
// transfer mechanics beyond supply accounting live outside this core.
type ReceiptToken struct {
	mu      sync.RWMutex
	auth    roleChecker
	emitter events.Emitter

	balances map[common.Address]*big.Int
	supply   *big.Int
	paused   bool
}

func New(auth roleChecker, emitter events.Emitter) *ReceiptToken {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &ReceiptToken{
		auth:     auth,
		emitter:  emitter,
		balances: make(map[common.Address]*big.Int),
		supply:   big.NewInt(0),
	}
}

// Mint credits amount to the recipient. Minter role required; fails while
// paused.
func (t *ReceiptToken) Mint(caller, to common.Address, amount *big.Int) error {
	if err := t.auth.Check(roles.RoleMinter, caller); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused {
		return ErrTokenPaused
	}

	balance, ok := t.balances[to]
	if !ok {
		balance = big.NewInt(0)
		t.balances[to] = balance
	}
	balance.Add(balance, amount)
	t.supply.Add(t.supply, amount)

	t.emitter.Emit(events.New("minted", map[string]string{
		"to":     to.Hex(),
		"amount": amount.String(),
		"supply": t.supply.String(),
	}))
	return nil
}

// BurnFrom debits amount from the account. Burner role required; fails
// while paused or when the account balance is short.
func (t *ReceiptToken) BurnFrom(caller, account common.Address, amount *big.Int) error {
	if err := t.auth.Check(roles.RoleBurner, caller); err != nil {
		return err
	}
	if account == (common.Address{}) {
		return ErrInvalidAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused {
		return ErrTokenPaused
	}

	balance, ok := t.balances[account]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s", ErrInsufficientBalance, account.Hex())
	}
	balance.Sub(balance, amount)
	t.supply.Sub(t.supply, amount)

	t.emitter.Emit(events.New("burned", map[string]string{
		"from":   account.Hex(),
		"amount": amount.String(),
		"supply": t.supply.String(),
	}))
	return nil
}

// Pause halts mint and burn. Manager role required; rejected if already
// paused.
func (t *ReceiptToken) Pause(caller common.Address) error {
	if err := t.auth.Check(roles.RoleManager, caller); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return ErrAlreadyPaused
	}
	t.paused = true
	t.emitter.Emit(events.New("paused", map[string]string{"by": caller.Hex()}))
	return nil
}

// Unpause resumes mint and burn. Default admin role required; rejected if
// not paused.
func (t *ReceiptToken) Unpause(caller common.Address) error {
	if err := t.auth.Check(roles.RoleDefaultAdmin, caller); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return ErrNotPaused
	}
	t.paused = false
	t.emitter.Emit(events.New("unpaused", map[string]string{"by": caller.Hex()}))
	return nil
}

// Paused reports the pause state.
func (t *ReceiptToken) Paused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// TotalSupply returns the live supply. The context mirrors the on-chain
// supply reader so the oracle treats both as external reads.
func (t *ReceiptToken) TotalSupply(ctx context.Context) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.supply), nil
}

// BalanceOf returns the account balance.
func (t *ReceiptToken) BalanceOf(account common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if balance, ok := t.balances[account]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}
