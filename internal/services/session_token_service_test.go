package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpoint/onboarding-service/internal/utils"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func TestSessionTokenRoundTrip(t *testing.T) {
	clock := newFakeClock()
	svc := NewSessionTokenService(testSigningKey, time.Hour, clock.Now)
	sid := uuid.NewString()

	tok, err := svc.Issue(sid)
	require.NoError(t, err)

	got, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, sid, got)
	assert.Equal(t, time.Hour, svc.TTL())
}

func TestSessionTokenExpires(t *testing.T) {
	clock := newFakeClock()
	svc := NewSessionTokenService(testSigningKey, time.Minute, clock.Now)
	tok, err := svc.Issue(uuid.NewString())
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.Parse(tok)
	assert.ErrorIs(t, err, utils.ErrTokenExpired)
}

func TestSessionTokenRejectsForgeries(t *testing.T) {
	clock := newFakeClock()
	svc := NewSessionTokenService(testSigningKey, time.Hour, clock.Now)
	now := clock.Now()

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss": TokenIssuer,
			"sub": uuid.NewString(),
			"exp": now.Add(time.Hour).Unix(),
		}
	}

	otherKey := sign(jwt.SigningMethodHS256, []byte("another-key-another-key-another!!"), valid())

	wrongIssuer := valid()
	wrongIssuer["iss"] = "someone-else"

	noExpiry := valid()
	delete(noExpiry, "exp")

	badSubject := valid()
	badSubject["sub"] = "not-a-uuid"

	cases := map[string]string{
		"garbage":      "not.a.token",
		"other key":    otherKey,
		"wrong issuer": sign(jwt.SigningMethodHS256, testSigningKey, wrongIssuer),
		"no expiry":    sign(jwt.SigningMethodHS256, testSigningKey, noExpiry),
		"bad subject":  sign(jwt.SigningMethodHS256, testSigningKey, badSubject),
		"hs512":        sign(jwt.SigningMethodHS512, testSigningKey, valid()),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Parse(tok)
			assert.ErrorIs(t, err, utils.ErrInvalidSession)
		})
	}
}
