package authz

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"taskhub/internal/apperr"
	"taskhub/internal/domain"
)

func kindOf(c *qt.C, err error) apperr.Kind {
	var ae *apperr.Error
	c.Assert(errors.As(err, &ae), qt.IsTrue)
	return ae.Kind
}

func TestCheckSelfRoleChange(t *testing.T) {
	c := qt.New(t)
	c.Assert(CheckSelfRoleChange(1, 2), qt.IsNil)

	err := CheckSelfRoleChange(1, 1)
	c.Assert(err, qt.ErrorMatches, "cannot change your own role")
	c.Assert(kindOf(c, err), qt.Equals, apperr.KindInvariant)
}

func TestCheckLastAdmin(t *testing.T) {
	c := qt.New(t)

	// 降级最后一个 ADMIN
	err := CheckLastAdmin(domain.RoleAdmin, domain.RoleUser, 1)
	c.Assert(err, qt.ErrorMatches, "cannot remove the last admin")

	// 还有别的 ADMIN 时可以降
	c.Assert(CheckLastAdmin(domain.RoleAdmin, domain.RoleUser, 2), qt.IsNil)
	// 普通用户之间改不受限
	c.Assert(CheckLastAdmin(domain.RoleUser, domain.RoleAdmin, 1), qt.IsNil)
	// ADMIN 改成 ADMIN 是空操作
	c.Assert(CheckLastAdmin(domain.RoleAdmin, domain.RoleAdmin, 1), qt.IsNil)
}

func TestCheckOwnerRemoval(t *testing.T) {
	c := qt.New(t)

	err := CheckOwnerRemoval(domain.RoleOwner, 1)
	c.Assert(err, qt.ErrorMatches, "cannot remove the last owner of the project")

	// 两个 OWNER 时可以移除一个，但随后剩下的那个又被保护
	c.Assert(CheckOwnerRemoval(domain.RoleOwner, 2), qt.IsNil)
	c.Assert(CheckOwnerRemoval(domain.RoleOwner, 1), qt.Not(qt.IsNil))

	// MEMBER 随便移除
	c.Assert(CheckOwnerRemoval(domain.RoleMember, 1), qt.IsNil)
}

func TestCheckOwnerDemotion(t *testing.T) {
	c := qt.New(t)

	err := CheckOwnerDemotion(domain.RoleOwner, domain.RoleMember, 1)
	c.Assert(err, qt.ErrorMatches, "cannot remove the last owner of the project")

	c.Assert(CheckOwnerDemotion(domain.RoleOwner, domain.RoleMember, 2), qt.IsNil)
	c.Assert(CheckOwnerDemotion(domain.RoleOwner, domain.RoleOwner, 1), qt.IsNil)
	c.Assert(CheckOwnerDemotion(domain.RoleMember, domain.RoleOwner, 1), qt.IsNil)
}

func TestCheckUniqueMember(t *testing.T) {
	c := qt.New(t)
	c.Assert(CheckUniqueMember(false), qt.IsNil)

	err := CheckUniqueMember(true)
	c.Assert(err, qt.ErrorMatches, "user is already a member of this project")
	c.Assert(kindOf(c, err), qt.Equals, apperr.KindConflict)
}

func TestCheckAssigneeMembership(t *testing.T) {
	c := qt.New(t)
	c.Assert(CheckAssigneeMembership(true), qt.IsNil)

	err := CheckAssigneeMembership(false)
	c.Assert(err, qt.ErrorMatches, "assigned user is not a member of the project")
	c.Assert(kindOf(c, err), qt.Equals, apperr.KindInvariant)
}

func TestCheckBan(t *testing.T) {
	c := qt.New(t)

	c.Assert(CheckBan(1, 2, domain.RoleUser, 1), qt.IsNil)
	c.Assert(CheckBan(1, 2, domain.RoleAdmin, 2), qt.IsNil)

	err := CheckBan(1, 1, domain.RoleAdmin, 5)
	c.Assert(err, qt.ErrorMatches, "cannot ban yourself")

	err = CheckBan(1, 2, domain.RoleAdmin, 1)
	c.Assert(err, qt.ErrorMatches, "cannot ban the last admin")
}
