package auth

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"taskhub/internal/domain"
)

func TestIssueParseRoundtrip(t *testing.T) {
	c := qt.New(t)

	j := &JWTer{Secret: []byte("test-secret"), Issuer: "taskhub", TTL: time.Hour}
	tok, err := j.Issue(42, domain.RoleAdmin)
	c.Assert(err, qt.IsNil)
	c.Assert(tok, qt.Not(qt.Equals), "")

	claims, err := j.Parse(tok)
	c.Assert(err, qt.IsNil)
	c.Assert(claims.UID, qt.Equals, uint(42))
	c.Assert(claims.Role, qt.Equals, domain.RoleAdmin)
	c.Assert(claims.Issuer, qt.Equals, "taskhub")
}

func TestParseRejectsWrongSecret(t *testing.T) {
	c := qt.New(t)

	j1 := &JWTer{Secret: []byte("secret-a"), Issuer: "taskhub", TTL: time.Hour}
	j2 := &JWTer{Secret: []byte("secret-b"), Issuer: "taskhub", TTL: time.Hour}

	tok, err := j1.Issue(1, domain.RoleUser)
	c.Assert(err, qt.IsNil)

	_, err = j2.Parse(tok)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	c := qt.New(t)

	j1 := &JWTer{Secret: []byte("s"), Issuer: "other", TTL: time.Hour}
	j2 := &JWTer{Secret: []byte("s"), Issuer: "taskhub", TTL: time.Hour}

	tok, err := j1.Issue(1, domain.RoleUser)
	c.Assert(err, qt.IsNil)

	_, err = j2.Parse(tok)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestParseRejectsExpired(t *testing.T) {
	c := qt.New(t)

	// Parse 留了 60s 的时钟偏移余量，要超出它才算过期
	j := &JWTer{Secret: []byte("s"), Issuer: "taskhub", TTL: -2 * time.Minute}
	tok, err := j.Issue(1, domain.RoleUser)
	c.Assert(err, qt.IsNil)

	_, err = j.Parse(tok)
	c.Assert(err, qt.Not(qt.IsNil))
}
