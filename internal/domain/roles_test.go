package domain

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestEnumsValid(t *testing.T) {
	c := qt.New(t)

	c.Assert(RoleAdmin.Valid(), qt.IsTrue)
	c.Assert(RoleUser.Valid(), qt.IsTrue)
	c.Assert(GlobalRole("ROOT").Valid(), qt.IsFalse)
	c.Assert(GlobalRole("").Valid(), qt.IsFalse)
	c.Assert(GlobalRole("admin").Valid(), qt.IsFalse) // 大小写敏感

	c.Assert(RoleOwner.Valid(), qt.IsTrue)
	c.Assert(RoleMember.Valid(), qt.IsTrue)
	c.Assert(ProjectRole("VIEWER").Valid(), qt.IsFalse)

	for _, s := range []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone} {
		c.Assert(s.Valid(), qt.IsTrue)
	}
	c.Assert(TaskStatus("CANCELLED").Valid(), qt.IsFalse)

	for _, p := range []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		c.Assert(p.Valid(), qt.IsTrue)
	}
	c.Assert(TaskPriority("BLOCKER").Valid(), qt.IsFalse)
}

func TestSummaries(t *testing.T) {
	c := qt.New(t)

	u := User{Email: "a@b.co", Name: "A"}
	u.ID = 7
	s := u.Summary()
	c.Assert(s.ID, qt.Equals, uint(7))
	c.Assert(s.Email, qt.Equals, "a@b.co")
	c.Assert(s.Name, qt.Equals, "A")

	p := Project{Name: "Site"}
	p.ID = 3
	ps := p.Summary()
	c.Assert(ps.ID, qt.Equals, uint(3))
	c.Assert(ps.Name, qt.Equals, "Site")
}
