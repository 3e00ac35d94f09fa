package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(m *JWTMiddleware) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := ClaimsFromContext(r.Context()); c != nil {
			w.Write([]byte(c.Subject))
			return
		}
		w.Write([]byte("anonymous"))
	}))
}

func do(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/voices", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_Disabled(t *testing.T) {
	m := NewJWTMiddleware("")
	assert.False(t, m.Enabled())

	rec := do(protected(m), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAuthenticate(t *testing.T) {
	m := NewJWTMiddleware("s3cret")
	require.True(t, m.Enabled())
	h := protected(m)

	rec := do(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing authorization token"}`, rec.Body.String())

	rec = do(h, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wrongKey, err := IssueToken("other", "user-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(h, wrongKey).Code)

	expired, err := IssueToken("s3cret", "user-1", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(h, expired).Code)

	good, err := IssueToken("s3cret", "user-1", time.Hour)
	require.NoError(t, err)
	rec = do(h, good)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestAuthenticate_RejectsNoneAlgAndMissingSubject(t *testing.T) {
	h := protected(NewJWTMiddleware("s3cret"))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(h, none).Code)

	noSub, err := IssueToken("s3cret", "", time.Hour)
	require.NoError(t, err)
	rec := do(h, noSub)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"token has no subject"}`, rec.Body.String())
}
