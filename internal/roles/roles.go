package roles

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Role is a named permission category gating one or more mutating operations.
type Role string

const (
	RoleDefaultAdmin Role = "DEFAULT_ADMIN"
	RoleManager      Role = "MANAGER"
	RoleMinter       Role = "MINTER"
	RoleBurner       Role = "BURNER"
	RoleOracleAdmin  Role = "ORACLE_ADMIN"
)

var ErrUnauthorized = errors.New("roles: unauthorized")

// Authority tracks role membership and the admin role governing each role.
// The default admin role administers itself and, unless overridden via
// SetRoleAdmin, every other role.
type Authority struct {
	mu      sync.RWMutex
	members map[Role]map[common.Address]struct{}
	admins  map[Role]Role
}

// NewAuthority seeds the default admin role with the given account.
func NewAuthority(admin common.Address) *Authority {
	a := &Authority{
		members: make(map[Role]map[common.Address]struct{}),
		admins:  make(map[Role]Role),
	}
	a.members[RoleDefaultAdmin] = map[common.Address]struct{}{admin: {}}
	return a
}

// HasRole reports whether account holds role.
func (a *Authority) HasRole(role Role, account common.Address) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.members[role][account]
	return ok
}

// Check returns ErrUnauthorized when account does not hold role. It is the
// shared precondition helper invoked at the top of every gated operation.
func (a *Authority) Check(role Role, account common.Address) error {
	if !a.HasRole(role, account) {
		return ErrUnauthorized
	}
	return nil
}

// Grant adds account to role. The caller must hold the role's admin role.
// Granting an already-held role succeeds and leaves membership unchanged.
func (a *Authority) Grant(caller common.Address, role Role, account common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.holdsLocked(a.adminOfLocked(role), caller) {
		return ErrUnauthorized
	}
	set, ok := a.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		a.members[role] = set
	}
	set[account] = struct{}{}
	return nil
}

// Revoke removes account from role. The caller must hold the role's admin
// role. Revoking an unheld role succeeds and leaves membership unchanged.
func (a *Authority) Revoke(caller common.Address, role Role, account common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.holdsLocked(a.adminOfLocked(role), caller) {
		return ErrUnauthorized
	}
	delete(a.members[role], account)
	return nil
}

// SetRoleAdmin assigns the admin role for a role category. Only default
// admins may rewire role administration.
func (a *Authority) SetRoleAdmin(caller common.Address, role Role, admin Role) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.holdsLocked(RoleDefaultAdmin, caller) {
		return ErrUnauthorized
	}
	a.admins[role] = admin
	return nil
}

// AdminOf returns the admin role governing role.
func (a *Authority) AdminOf(role Role) Role {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.adminOfLocked(role)
}

func (a *Authority) adminOfLocked(role Role) Role {
	if admin, ok := a.admins[role]; ok {
		return admin
	}
	return RoleDefaultAdmin
}

func (a *Authority) holdsLocked(role Role, account common.Address) bool {
	_, ok := a.members[role][account]
	return ok
}
