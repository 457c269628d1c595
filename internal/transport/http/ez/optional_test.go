package ez

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"taskhub/internal/apperr"
	resp "taskhub/internal/transport/http/response"
)

func TestOptionalDistinguishesAbsentAndNull(t *testing.T) {
	c := qt.New(t)

	type body struct {
		Title      Optional[string] `json:"title"`
		AssignedTo Optional[*uint]  `json:"assignedTo"`
	}

	var b body
	c.Assert(json.Unmarshal([]byte(`{}`), &b), qt.IsNil)
	c.Assert(b.Title.Set, qt.IsFalse)
	c.Assert(b.AssignedTo.Set, qt.IsFalse)

	b = body{}
	c.Assert(json.Unmarshal([]byte(`{"title":"x","assignedTo":null}`), &b), qt.IsNil)
	c.Assert(b.Title.Set, qt.IsTrue)
	c.Assert(b.Title.Value, qt.Equals, "x")
	c.Assert(b.AssignedTo.Set, qt.IsTrue)
	c.Assert(b.AssignedTo.Value, qt.IsNil)

	b = body{}
	c.Assert(json.Unmarshal([]byte(`{"assignedTo":9}`), &b), qt.IsNil)
	c.Assert(b.AssignedTo.Set, qt.IsTrue)
	c.Assert(*b.AssignedTo.Value, qt.Equals, uint(9))
}

func TestCodeFor(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		kind apperr.Kind
		code int
	}{
		{apperr.KindUnauthenticated, resp.CodeUnauthorized},
		{apperr.KindForbidden, resp.CodeForbidden},
		{apperr.KindInvariant, resp.CodeBadRequest},
		{apperr.KindValidation, resp.CodeBadRequest},
		{apperr.KindNotFound, resp.CodeNotFound},
		{apperr.KindConflict, resp.CodeConflict},
		{apperr.KindInternal, resp.CodeServerError},
	}
	for _, tc := range cases {
		c.Assert(CodeFor(tc.kind), qt.Equals, tc.code)
	}
}
