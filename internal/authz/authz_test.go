package authz

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"taskhub/internal/apperr"
	"taskhub/internal/domain"
)

var (
	anon   = Principal{}
	admin  = Principal{UserID: 1, Role: domain.RoleAdmin}
	user   = Principal{UserID: 2, Role: domain.RoleUser}
	owner  = Facts{MemberRole: domain.RoleOwner}
	member = Facts{MemberRole: domain.RoleMember}
	none   = Facts{}
)

func TestDecide(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name  string
		p     Principal
		act   Action
		f     Facts
		allow bool
	}{
		{"anonymous denied everywhere", anon, ViewProject, owner, false},
		{"anonymous cannot create project", anon, CreateProject, none, false},

		{"any user creates projects", user, CreateProject, none, true},
		{"admin creates projects", admin, CreateProject, none, true},

		{"member views project", user, ViewProject, member, true},
		{"owner views project", user, ViewProject, owner, true},
		{"admin views any project", admin, ViewProject, none, true},
		{"non-member cannot view", user, ViewProject, none, false},

		{"member cannot update project", user, UpdateProject, member, false},
		{"owner updates project", user, UpdateProject, owner, true},
		{"admin updates any project", admin, UpdateProject, none, true},
		{"member cannot delete project", user, DeleteProject, member, false},
		{"owner deletes project", user, DeleteProject, owner, true},

		{"member views members", user, ViewMembers, member, true},
		{"non-member cannot view members", user, ViewMembers, none, false},
		{"member cannot manage members", user, ManageMembers, member, false},
		{"owner manages members", user, ManageMembers, owner, true},
		{"admin manages members anywhere", admin, ManageMembers, none, true},

		{"member creates tasks", user, CreateTask, member, true},
		{"non-member cannot create tasks", user, CreateTask, none, false},
		{"member deletes tasks", user, DeleteTask, member, true},
		{"member views tasks", user, ViewTask, member, true},
		{"non-member cannot view tasks", user, ViewTask, none, false},

		{"member updates task in place", user, UpdateTask, member, true},
		{"non-member cannot update task", user, UpdateTask, none, false},

		{"user cannot manage users", user, ManageUsers, none, false},
		{"admin manages users", admin, ManageUsers, none, true},
	}
	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			d := Decide(tc.p, tc.act, tc.f)
			c.Assert(d.Allow, qt.Equals, tc.allow)
			if !d.Allow {
				c.Assert(d.Reason, qt.Not(qt.Equals), "")
			}
		})
	}
}

func TestDecideTaskMove(t *testing.T) {
	c := qt.New(t)

	// 移动任务要求对源项目和目标项目都有访问权
	d := Decide(user, UpdateTask, Facts{MemberRole: domain.RoleMember, MoveProject: true, DestMemberRole: domain.RoleMember})
	c.Assert(d.Allow, qt.IsTrue)

	d = Decide(user, UpdateTask, Facts{MemberRole: domain.RoleMember, MoveProject: true})
	c.Assert(d.Allow, qt.IsFalse)
	c.Assert(d.Reason, qt.Equals, "you do not have access to the target project")

	d = Decide(admin, UpdateTask, Facts{MoveProject: true})
	c.Assert(d.Allow, qt.IsTrue)
}

func TestDecideDefaultDeny(t *testing.T) {
	c := qt.New(t)
	d := Decide(admin, Action(999), Facts{})
	c.Assert(d.Allow, qt.IsFalse)
	c.Assert(d.Reason, qt.Equals, "unknown action")
}

func TestRequire(t *testing.T) {
	c := qt.New(t)

	c.Assert(Require(user, CreateProject, none), qt.IsNil)

	err := Require(anon, ViewProject, none)
	var ae *apperr.Error
	c.Assert(errors.As(err, &ae), qt.IsTrue)
	c.Assert(ae.Kind, qt.Equals, apperr.KindUnauthenticated)

	err = Require(user, ManageUsers, none)
	c.Assert(errors.As(err, &ae), qt.IsTrue)
	c.Assert(ae.Kind, qt.Equals, apperr.KindForbidden)
}

func TestRegistrationRole(t *testing.T) {
	c := qt.New(t)
	c.Assert(RegistrationRole(0), qt.Equals, domain.RoleAdmin)
	c.Assert(RegistrationRole(1), qt.Equals, domain.RoleUser)
	c.Assert(RegistrationRole(42), qt.Equals, domain.RoleUser)
}
