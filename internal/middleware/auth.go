package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const identityKey = "identity"

var (
	ErrMissingToken  = errors.New("authorization is missing")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Identity is who the token says is calling. Tokens are issued elsewhere;
// this service only verifies them.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     string
	// Features is nil when the token carries no features claim, which grants every feature.
	Features []string
}

// Can reports whether the identity's plan includes feature.
func (id Identity) Can(feature string) bool {
	return id.Features == nil || slices.Contains(id.Features, feature)
}

// ParseToken verifies an HMAC-signed token and reads the sub, tenant_id, role
// and features claims.
func ParseToken(secret []byte, tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidClaims
	}

	var id Identity
	sub, _ := claims["sub"].(string)
	if id.UserID, err = uuid.Parse(sub); err != nil {
		return Identity{}, ErrInvalidClaims
	}
	tenant, _ := claims["tenant_id"].(string)
	if id.TenantID, err = uuid.Parse(tenant); err != nil || id.TenantID == uuid.Nil {
		return Identity{}, ErrInvalidClaims
	}
	id.Role, _ = claims["role"].(string)

	if raw, present := claims["features"]; present {
		list, ok := raw.([]interface{})
		if !ok {
			return Identity{}, ErrInvalidClaims
		}
		id.Features = make([]string, 0, len(list))
		for _, f := range list {
			if s, ok := f.(string); ok {
				id.Features = append(id.Features, s)
			}
		}
	}
	return id, nil
}

// tokenFrom reads the access_token cookie, falling back to the Authorization header.
func tokenFrom(c *gin.Context) (string, error) {
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr == nil && tokenString != "" {
		return tokenString, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// RequireAuth validates the JWT and stores the caller's Identity on the context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFrom(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		id, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity RequireAuth stored, if any.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// RequireRole checks that the caller's role is one of allowedRoles. It must run after RequireAuth.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, ErrMissingToken.Error()))
			return
		}
		if !slices.Contains(allowedRoles, id.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}

// RequireFeature rejects callers whose plan does not include feature. It must run after RequireAuth.
func RequireFeature(feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, ErrMissingToken.Error()))
			return
		}
		if !id.Can(feature) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: feature '"+feature+"' is not enabled"))
			return
		}
		c.Next()
	}
}
