package roles

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	admin  = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000a03")
	nobody = common.HexToAddress("0x0000000000000000000000000000000000000a04")
)

func TestGrantIdempotent(t *testing.T) {
	a := NewAuthority(admin)

	if err := a.Grant(admin, RoleManager, alice); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := a.Grant(admin, RoleManager, alice); err != nil {
		t.Fatalf("redundant grant failed: %v", err)
	}
	if !a.HasRole(RoleManager, alice) {
		t.Fatalf("alice should hold manager role")
	}

	if err := a.Revoke(admin, RoleManager, alice); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if a.HasRole(RoleManager, alice) {
		t.Fatalf("alice should no longer hold manager role")
	}
	if err := a.Revoke(admin, RoleManager, alice); err != nil {
		t.Fatalf("redundant revoke failed: %v", err)
	}
}

func TestGrantRequiresAdmin(t *testing.T) {
	a := NewAuthority(admin)

	if err := a.Grant(nobody, RoleManager, alice); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if a.HasRole(RoleManager, alice) {
		t.Fatalf("denied grant must not change membership")
	}
}

func TestDefaultAdminSelfAdministers(t *testing.T) {
	a := NewAuthority(admin)

	if err := a.Grant(admin, RoleDefaultAdmin, alice); err != nil {
		t.Fatalf("grant default admin failed: %v", err)
	}
	if err := a.Grant(alice, RoleMinter, bob); err != nil {
		t.Fatalf("new default admin should administer roles: %v", err)
	}
}

func TestSetRoleAdmin(t *testing.T) {
	a := NewAuthority(admin)

	if err := a.SetRoleAdmin(nobody, RoleMinter, RoleManager); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := a.SetRoleAdmin(admin, RoleMinter, RoleManager); err != nil {
		t.Fatalf("set role admin failed: %v", err)
	}
	if got := a.AdminOf(RoleMinter); got != RoleManager {
		t.Fatalf("admin of minter = %s, want %s", got, RoleManager)
	}

	if err := a.Grant(admin, RoleManager, alice); err != nil {
		t.Fatalf("grant manager failed: %v", err)
	}
	if err := a.Grant(alice, RoleMinter, bob); err != nil {
		t.Fatalf("manager should now administer minter: %v", err)
	}
	// Default admin no longer administers the rewired role.
	if err := a.Grant(admin, RoleMinter, nobody); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for default admin, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	a := NewAuthority(admin)

	if err := a.Check(RoleDefaultAdmin, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Check(RoleDefaultAdmin, alice); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
