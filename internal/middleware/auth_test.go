package middleware

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func runIdentity(token string) (*fasthttp.RequestCtx, bool) {
	ctx := &fasthttp.RequestCtx{}
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}

	called := false
	handler := Identity(testSecret, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
	})
	handler(ctx)
	return ctx, called
}

func TestIdentity_ResolvesClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"staff_id":      "staff-alice",
		"role":          "staff",
		"department_id": "dept-b",
	})

	ctx, called := runIdentity(token)
	assert.True(t, called)
	assert.Equal(t, "staff-alice", string(ctx.Request.Header.Peek(HeaderStaffID)))
	assert.Equal(t, "staff", string(ctx.Request.Header.Peek(HeaderRole)))
	assert.Equal(t, "dept-b", string(ctx.Request.Header.Peek(HeaderDepartmentID)))
}

func TestIdentity_OverwritesSpoofedHeaders(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"staff_id": "staff-alice", "role": "staff"})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer "+token)
	ctx.Request.Header.Set(HeaderStaffID, "staff-root")
	ctx.Request.Header.Set(HeaderRole, "admin")

	Identity(testSecret, nil)(func(*fasthttp.RequestCtx) {})(ctx)

	assert.Equal(t, "staff-alice", string(ctx.Request.Header.Peek(HeaderStaffID)))
	assert.Equal(t, "staff", string(ctx.Request.Header.Peek(HeaderRole)))
}

func TestIdentity_MissingToken(t *testing.T) {
	ctx, called := runIdentity("")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestIdentity_WrongSecret(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"staff_id": "staff-alice",
	}).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	ctx, called := runIdentity(token)
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestIdentity_MissingStaffClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"role": "staff"})

	_, called := runIdentity(token)
	assert.False(t, called)
}
