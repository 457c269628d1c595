package utils

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPasswordRoundtrip(t *testing.T) {
	c := qt.New(t)

	h := HashPassword("s3cret-pw")
	c.Assert(h, qt.Not(qt.Equals), "")
	c.Assert(h, qt.Not(qt.Equals), "s3cret-pw")

	c.Assert(CheckPassword("s3cret-pw", h), qt.IsTrue)
	c.Assert(CheckPassword("wrong", h), qt.IsFalse)
	c.Assert(CheckPassword("s3cret-pw", "not-a-hash"), qt.IsFalse)
}
