package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-server/internal/repository"
)

// CookieName is the cookie carrying the session token.
const CookieName = "jwt"

// Middleware resolves the caller's identity once per request and
// attaches it to the request context. It never rejects by itself:
// requests without a usable token continue anonymously so public
// endpoints keep working. Use RequireAuth on protected routes.
func Middleware(tokens *TokenCodec, users repository.UserRepository, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolveIdentity(c, tokens, users, logger)
		if err != nil {
			// credential store down; this is a server fault, not an auth failure
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// RequireAuth rejects requests that carry no authenticated identity
// before any handler logic runs.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFromContext(c.Request.Context()).Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, tokens *TokenCodec, users repository.UserRepository, logger logrus.FieldLogger) (Identity, error) {
	tokenString := extractToken(c)
	if tokenString == "" {
		return Identity{}, nil
	}

	claims, err := tokens.Verify(tokenString)
	if err != nil {
		// the client only ever sees "unauthenticated"; the kind is for logs
		logger.WithError(err).Debug("token rejected")
		return Identity{}, nil
	}

	// the subject may have been deleted since the token was issued
	user, err := users.GetByUsername(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logger.WithField("subject", claims.Subject).Debug("token subject no longer exists")
			return Identity{}, nil
		}
		return Identity{}, err
	}

	return Identity{
		UserID:        user.ID,
		Username:      user.Username,
		Authenticated: true,
	}, nil
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}
