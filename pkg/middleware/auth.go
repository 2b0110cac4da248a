package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wms-platform/task-control-service/pkg/errors"
	"github.com/wms-platform/task-control-service/pkg/logging"
)

const (
	// ContextKeyIdentity holds the authenticated *Identity
	ContextKeyIdentity = "identity"

	userIDClaim = "id"
)

// Identity is the authenticated user behind a request
type Identity struct {
	UserID  string
	CodUser string
	Name    string
	Role    string
	Token   string
}

// IdentityResolver loads the user a verified token refers to. It returns
// nil, nil for unknown users.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*Identity, error)
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Secret   []byte
	Resolver IdentityResolver
	Logger   *logging.Logger
}

// Authenticate verifies the HS256 bearer token and resolves its user.
// Every failure answers 401.
func Authenticate(config *AuthConfig) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return config.Secret, nil }

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithAppError(c, errors.ErrUnauthorized("Missing bearer token"))
			return
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
			config.Logger.WithContext(c.Request.Context()).Warn("Rejected token", "error", err.Error())
			AbortWithAppError(c, errors.ErrUnauthorized("Invalid token"))
			return
		}

		userID, err := subject(claims)
		if err != nil {
			AbortWithAppError(c, errors.ErrUnauthorized("Invalid token"))
			return
		}

		identity, err := config.Resolver.ResolveIdentity(c.Request.Context(), userID)
		if err != nil {
			config.Logger.WithContext(c.Request.Context()).WithError(err).Warn("Failed to resolve token user", "userId", userID)
			AbortWithAppError(c, errors.ErrUnauthorized("Unknown user"))
			return
		}
		if identity == nil {
			AbortWithAppError(c, errors.ErrUnauthorized("Unknown user"))
			return
		}
		identity.Token = raw

		c.Set(ContextKeyIdentity, identity)
		c.Request = c.Request.WithContext(logging.ContextWithUserID(c.Request.Context(), identity.CodUser))
		c.Next()
	}
}

// RequireRole lets only the given roles through
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			AbortWithAppError(c, errors.ErrUnauthorized("Missing identity"))
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		AbortWithAppError(c, errors.ErrForbidden("Only admin users can perform this action"))
	}
}

// GetIdentity returns the authenticated identity, or nil
func GetIdentity(c *gin.Context) *Identity {
	if v, ok := c.Get(ContextKeyIdentity); ok {
		if identity, ok := v.(*Identity); ok {
			return identity
		}
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func subject(claims jwt.MapClaims) (string, error) {
	switch v := claims[userIDClaim].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", fmt.Errorf("token has no %q claim", userIDClaim)
}
