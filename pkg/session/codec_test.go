package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClaims struct {
	UserID   int64  `json:"userId"`
	SchoolID int64  `json:"schoolId"`
	Role     string `json:"role"`
	Stamped
}

func fixedCodec(secret string, at time.Time) *Codec {
	c := NewCodec(secret, 8*time.Hour)
	c.now = func() time.Time { return at }
	return c
}

func TestCodecRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	codec := fixedCodec("secret", now)

	token, err := codec.Encode(&testClaims{UserID: 7, SchoolID: 3, Role: "teacher"})
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	var decoded testClaims
	require.NoError(t, codec.Decode(token, &decoded))
	assert.Equal(t, int64(7), decoded.UserID)
	assert.Equal(t, int64(3), decoded.SchoolID)
	assert.Equal(t, "teacher", decoded.Role)
	require.NotNil(t, decoded.IssuedAt)
	assert.Equal(t, now.Unix(), decoded.IssuedAt.Unix())
}

func TestCodecRejectsTampering(t *testing.T) {
	now := time.Now()
	codec := fixedCodec("secret", now)
	token, err := codec.Encode(&testClaims{UserID: 1, SchoolID: 1, Role: "teacher"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged, err := fixedCodec("other-secret", now).Encode(&testClaims{UserID: 1, SchoolID: 2, Role: "superadmin"})
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	cases := map[string]string{
		"empty":           "",
		"garbage":         "not-a-token",
		"swapped payload": parts[0] + "." + forgedParts[1] + "." + parts[2],
		"foreign secret":  forged,
		"missing sig":     parts[0] + "." + parts[1] + ".",
		"truncated":       parts[0] + "." + parts[1],
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var claims testClaims
			assert.ErrorIs(t, codec.Decode(raw, &claims), ErrInvalid)
		})
	}
}

func TestCodecRejectsNoneAlgorithm(t *testing.T) {
	codec := NewCodec("secret", time.Hour)
	claims := &testClaims{UserID: 1, SchoolID: 1, Role: "admin"}
	claims.stamp(time.Now(), time.Now().Add(time.Hour))
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	var decoded testClaims
	assert.ErrorIs(t, codec.Decode(raw, &decoded), ErrInvalid)
}

func TestCodecExpiresAfterMaxAge(t *testing.T) {
	issued := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	token, err := fixedCodec("secret", issued).Encode(&testClaims{UserID: 1, SchoolID: 1, Role: "teacher"})
	require.NoError(t, err)

	var claims testClaims
	require.NoError(t, fixedCodec("secret", issued.Add(7*time.Hour)).Decode(token, &claims))
	assert.ErrorIs(t, fixedCodec("secret", issued.Add(9*time.Hour)).Decode(token, &claims), ErrInvalid)
}
