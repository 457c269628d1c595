package apperr

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestConstructors(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		err  error
		kind Kind
		msg  string
	}{
		{Unauthenticated("authentication required"), KindUnauthenticated, "authentication required"},
		{Forbidden("admin access required"), KindForbidden, "admin access required"},
		{Invariant("cannot remove the last admin"), KindInvariant, "cannot remove the last admin"},
		{Conflict("already exists"), KindConflict, "already exists"},
		{NotFound("project"), KindNotFound, "project not found"},
		{Validation("role", "unknown role"), KindValidation, "role: unknown role"},
	}
	for _, tc := range cases {
		var ae *Error
		c.Assert(errors.As(tc.err, &ae), qt.IsTrue)
		c.Assert(ae.Kind, qt.Equals, tc.kind)
		c.Assert(tc.err.Error(), qt.Equals, tc.msg)
	}
}

func TestInternalUnwrap(t *testing.T) {
	c := qt.New(t)

	cause := fmt.Errorf("connection refused")
	err := Internal("lookup user", cause)

	var ae *Error
	c.Assert(errors.As(err, &ae), qt.IsTrue)
	c.Assert(ae.Kind, qt.Equals, KindInternal)
	c.Assert(errors.Is(err, cause), qt.IsTrue)
	c.Assert(err.Error(), qt.Equals, "lookup user")
}

func TestErrorFallbackMessages(t *testing.T) {
	c := qt.New(t)

	e := &Error{Kind: KindInternal, Err: fmt.Errorf("boom")}
	c.Assert(e.Error(), qt.Equals, "boom")

	e = &Error{Kind: KindInternal}
	c.Assert(e.Error(), qt.Equals, "application error")
}
