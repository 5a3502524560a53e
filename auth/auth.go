// Package auth carries the caller identity resolved by the upstream auth
// gateway through a request-scoped context.
package auth

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"

	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type ctxKey struct{}

// Identity 当前请求的调用方
type Identity struct {
	UserID int64
	Role   string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// UserID 返回当前登录的小程序用户ID
func UserID(ctx context.Context) (int64, bool) {
	id, ok := FromContext(ctx)
	if !ok || id.Role != RoleUser || id.UserID <= 0 {
		return 0, false
	}
	return id.UserID, true
}

// Middleware 读取网关写入的身份头，放进请求 context
// 没有身份头的请求继续向下传递，由 RequireRole 决定是否拒绝
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
		if err == nil && uid > 0 {
			role := c.GetHeader(HeaderUserRole)
			if role == "" {
				role = RoleUser
			}
			c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), Identity{UserID: uid, Role: role}))
		}
		c.Next()
	}
}

// RequireRole 要求调用方具有指定角色
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := FromContext(c.Request.Context())
		if !ok || id.Role != role {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 0, "msg": "please log in first"})
			return
		}
		c.Next()
	}
}
