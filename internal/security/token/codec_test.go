package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dscatalog/internal/model"
)

const testSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)
	return codec.WithClock(func() time.Time { return now })
}

func sampleClaims(issuedAt time.Time, ttl time.Duration) model.AccessClaims {
	return model.AccessClaims{
		ID:          "6f1b7a52-1d5c-4a8e-9a43-0e7d0c8f3b21",
		SubjectID:   1,
		Username:    "maria@gmail.com",
		ClientID:    "dscatalog",
		Authorities: []string{"OPERATOR"},
		Scope:       []string{"read", "write"},
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(ttl),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	issuedAt := time.Unix(1_700_000_000, 0).UTC()
	codec := newTestCodec(t, issuedAt.Add(time.Minute))

	cases := []model.AccessClaims{
		sampleClaims(issuedAt, 24*time.Hour),
		{
			SubjectID:   42,
			Authorities: []string{"OPERATOR", "ADMIN"},
			Scope:       []string{},
			IssuedAt:    issuedAt,
			ExpiresAt:   issuedAt.Add(time.Hour),
		},
	}

	for _, claims := range cases {
		signed, err := codec.Sign(claims)
		require.NoError(t, err)
		require.Len(t, strings.Split(signed, "."), 3)

		verified, err := codec.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, claims, verified)
	}
}

func TestCodecExpiry(t *testing.T) {
	t.Parallel()

	issuedAt := time.Unix(1_700_000_000, 0).UTC()
	ttl := 86400 * time.Second
	base, err := NewCodec(testSecret)
	require.NoError(t, err)

	signed, err := base.WithClock(func() time.Time { return issuedAt }).Sign(sampleClaims(issuedAt, ttl))
	require.NoError(t, err)

	t.Run("valid up to and including the expiry instant", func(t *testing.T) {
		for _, at := range []time.Time{issuedAt, issuedAt.Add(ttl / 2), issuedAt.Add(ttl)} {
			_, err := base.WithClock(func() time.Time { return at }).Verify(signed)
			require.NoError(t, err, "at %s", at)
		}
	})

	t.Run("expired once now passes the expiry", func(t *testing.T) {
		for _, at := range []time.Time{issuedAt.Add(ttl + time.Nanosecond), issuedAt.Add(ttl + time.Second), issuedAt.Add(2 * ttl)} {
			_, err := base.WithClock(func() time.Time { return at }).Verify(signed)
			require.ErrorIs(t, err, model.ErrTokenExpired, "at %s", at)
		}
	})
}

func TestCodecSingleBitMutations(t *testing.T) {
	t.Parallel()

	issuedAt := time.Unix(1_700_000_000, 0).UTC()
	codec := newTestCodec(t, issuedAt)
	signed, err := codec.Sign(sampleClaims(issuedAt, time.Hour))
	require.NoError(t, err)

	raw := []byte(signed)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit

			_, err := codec.Verify(string(mutated))
			if len(strings.Split(string(mutated), ".")) == 3 {
				require.ErrorIs(t, err, model.ErrInvalidSignature, "byte %d bit %d", i, bit)
			} else {
				require.ErrorIs(t, err, model.ErrMalformedToken, "byte %d bit %d", i, bit)
			}
		}
	}
}

func TestCodecRejectsTamperedClaims(t *testing.T) {
	t.Parallel()

	issuedAt := time.Unix(1_700_000_000, 0).UTC()
	codec := newTestCodec(t, issuedAt)
	signed, err := codec.Sign(sampleClaims(issuedAt, time.Hour))
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	elevated := strings.Replace(string(payload), `"OPERATOR"`, `"ADMIN"`, 1)
	require.NotEqual(t, string(payload), elevated)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(elevated))

	_, err = codec.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, model.ErrInvalidSignature)
}

func TestCodecFailureKinds(t *testing.T) {
	t.Parallel()

	issuedAt := time.Unix(1_700_000_000, 0).UTC()
	codec := newTestCodec(t, issuedAt)

	foreign, err := NewCodec("another-secret-key-that-is-long-enough")
	require.NoError(t, err)
	foreignToken, err := foreign.Sign(sampleClaims(issuedAt, time.Hour))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "exp": issuedAt.Add(time.Hour).Unix()})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: model.ErrMalformedToken},
		{name: "not a jwt", token: "opaque-token", want: model.ErrMalformedToken},
		{name: "too many segments", token: "a.b.c.d", want: model.ErrMalformedToken},
		{name: "signed with another key", token: foreignToken, want: model.ErrInvalidSignature},
		{name: "alg none", token: noneToken, want: model.ErrInvalidSignature},
		{name: "garbage signature", token: "eyJhbGciOiJIUzI1NiJ9.e30.!!!", want: model.ErrInvalidSignature},
		{name: "authentic but not json", token: signRaw(`{"alg":"HS256","typ":"JWT"}`, "not-json"), want: model.ErrMalformedToken},
		{name: "authentic but missing expiry", token: signRaw(`{"alg":"HS256","typ":"JWT"}`, `{"sub":"1","iat":1700000000}`), want: model.ErrMalformedToken},
		{name: "authentic but non-numeric subject", token: signRaw(`{"alg":"HS256","typ":"JWT"}`, `{"sub":"maria","iat":1700000000,"exp":1800000000}`), want: model.ErrMalformedToken},
		{name: "authentic but wrong alg header", token: signRaw(`{"alg":"HS512","typ":"JWT"}`, `{"sub":"1","iat":1700000000,"exp":1800000000}`), want: model.ErrInvalidSignature},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Verify(tc.token)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("   ")
	require.Error(t, err)
}

func TestSignRequiresTimestamps(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Now())
	_, err := codec.Sign(model.AccessClaims{SubjectID: 1})
	require.Error(t, err)
}

func TestSignRejectsFractionalTimestamps(t *testing.T) {
	t.Parallel()

	issuedAt := time.Unix(1_700_000_000, 0).UTC()
	codec := newTestCodec(t, issuedAt)

	for _, claims := range []model.AccessClaims{
		sampleClaims(issuedAt.Add(250*time.Millisecond), time.Hour),
		sampleClaims(issuedAt, time.Hour+500*time.Millisecond),
	} {
		_, err := codec.Sign(claims)
		require.Error(t, err)
	}

	signed, err := codec.Sign(sampleClaims(issuedAt, time.Hour))
	require.NoError(t, err)
	verified, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), verified.ExpiresAt)
}

// signRaw produces a correctly HMAC'd token around arbitrary header and payload bytes.
func signRaw(header string, payload string) string {
	signingString := base64.RawURLEncoding.EncodeToString([]byte(header)) + "." +
		base64.RawURLEncoding.EncodeToString([]byte(payload))
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(signingString))
	return signingString + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
