// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the operator for each request. The console fronts a
// single backend session kept in the credential store, so the identity is
// whatever the store holds right now: Session copies it into the Gin context
// under "userID" (read by the logger, the rate limiter and idempotency), and
// RequireSession rejects requests made while logged out.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

const (
	ctxKeyUserID = "userID"
	ctxKeyUser   = "session.user"
)

// Session loads the stored operator profile, if any, into the context. A
// store failure is logged and the request continues anonymously.
func Session(store credentials.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := credentials.Load(c.Request.Context(), store)
		switch {
		case errors.Is(err, credentials.ErrNoSession):
		case err != nil:
			LoggerFrom(c).Warn().Err(err).Msg("load session")
		default:
			c.Set(ctxKeyUserID, sess.UserID)
			if sess.User != nil {
				c.Set(ctxKeyUser, *sess.User)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the operator profile attached by Session.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}

// HasSession reports whether Session found a stored token.
func HasSession(c *gin.Context) bool {
	_, ok := c.Get(ctxKeyUserID)
	return ok
}

// RequireSession aborts with 401 unless Session found a stored token.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasSession(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "login required",
			})
			return
		}
		c.Next()
	}
}
