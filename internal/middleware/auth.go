package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Identity headers populated after token verification. The dispatch core
// trusts this triple and never re-derives authorization from it.
const (
	HeaderStaffID      = "X-Staff-ID"
	HeaderRole         = "X-Role"
	HeaderDepartmentID = "X-Department-ID"
)

// Identity resolves the (staff_id, role, department_id) triple from a bearer
// token issued by the external identity collaborator.
func Identity(secret string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid identity token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			staffID, _ := claims["staff_id"].(string)
			if staffID == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			role, _ := claims["role"].(string)
			deptID, _ := claims["department_id"].(string)

			// always overwrite so spoofed inbound headers never survive
			ctx.Request.Header.Set(HeaderStaffID, staffID)
			ctx.Request.Header.Set(HeaderRole, role)
			ctx.Request.Header.Set(HeaderDepartmentID, deptID)

			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
