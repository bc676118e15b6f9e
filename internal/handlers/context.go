package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vibeplanner/vibeplanner/internal/middleware"
	"github.com/vibeplanner/vibeplanner/pkg/errors"
	"github.com/vibeplanner/vibeplanner/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID extracts the authenticated principal set by the auth
// middleware. When absent it writes a 401 response and returns false.
func currentUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok || userID == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return "", false
	}
	return userID, true
}
