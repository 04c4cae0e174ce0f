package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("middleware-test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestParseToken(t *testing.T) {
	user, tenant := uuid.New(), uuid.New()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{"sub": user.String(), "tenant_id": tenant.String(), "role": "manager"}
	}

	t.Run("valid without features", func(t *testing.T) {
		id, err := ParseToken(testSecret, sign(t, jwt.SigningMethodHS256, testSecret, base()))
		require.NoError(t, err)
		assert.Equal(t, user, id.UserID)
		assert.Equal(t, tenant, id.TenantID)
		assert.Equal(t, "manager", id.Role)
		assert.Nil(t, id.Features)
		assert.True(t, id.Can("ledgers"))
	})

	t.Run("features claim limits the plan", func(t *testing.T) {
		claims := base()
		claims["features"] = []string{"sales", "returns"}
		id, err := ParseToken(testSecret, sign(t, jwt.SigningMethodHS512, testSecret, claims))
		require.NoError(t, err)
		assert.Equal(t, []string{"sales", "returns"}, id.Features)
		assert.True(t, id.Can("sales"))
		assert.False(t, id.Can("inventory"))
	})

	t.Run("empty features grants nothing", func(t *testing.T) {
		claims := base()
		claims["features"] = []string{}
		id, err := ParseToken(testSecret, sign(t, jwt.SigningMethodHS256, testSecret, claims))
		require.NoError(t, err)
		assert.False(t, id.Can("sales"))
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := ParseToken(testSecret, sign(t, jwt.SigningMethodHS256, []byte("other"), base()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		_, err := ParseToken(testSecret, sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, base()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	bad := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"missing tenant", func(c jwt.MapClaims) { delete(c, "tenant_id") }},
		{"nil tenant", func(c jwt.MapClaims) { c["tenant_id"] = uuid.Nil.String() }},
		{"subject not a uuid", func(c jwt.MapClaims) { c["sub"] = "alice" }},
		{"features not a list", func(c jwt.MapClaims) { c["features"] = "sales" }},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			claims := base()
			tt.mutate(claims)
			_, err := ParseToken(testSecret, sign(t, jwt.SigningMethodHS256, testSecret, claims))
			assert.ErrorIs(t, err, ErrInvalidClaims)
		})
	}
}

func TestGates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tenant := uuid.New()
	token := func(role string, features ...string) string {
		claims := jwt.MapClaims{"sub": uuid.NewString(), "tenant_id": tenant.String(), "role": role}
		if features != nil {
			claims["features"] = features
		}
		return sign(t, jwt.SigningMethodHS256, testSecret, claims)
	}

	router := gin.New()
	api := router.Group("", RequireAuth(testSecret))
	api.GET("/whoami", func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.String(http.StatusOK, id.TenantID.String())
	})
	api.GET("/sales", RequireFeature("sales"), func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/unguarded", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		want   int
	}{
		{"no token", "/whoami", "", "", http.StatusUnauthorized},
		{"basic scheme", "/whoami", "Basic abc", "", http.StatusUnauthorized},
		{"bearer header", "/whoami", "Bearer " + token("staff"), "", http.StatusOK},
		{"cookie", "/whoami", "", token("staff"), http.StatusOK},
		{"feature granted by default", "/sales", "Bearer " + token("staff"), "", http.StatusOK},
		{"feature listed", "/sales", "Bearer " + token("staff", "sales"), "", http.StatusOK},
		{"feature missing", "/sales", "Bearer " + token("staff", "inventory"), "", http.StatusForbidden},
		{"role allowed", "/admin", "Bearer " + token("admin"), "", http.StatusOK},
		{"role denied", "/admin", "Bearer " + token("staff"), "", http.StatusForbidden},
		{"role without auth", "/unguarded", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.path == "/whoami" && tt.want == http.StatusOK {
				assert.Equal(t, tenant.String(), w.Body.String())
			}
		})
	}
}

func TestRequireAuthStoresOnlyIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user, tenant := uuid.New(), uuid.New()
	token := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": user.String(), "tenant_id": tenant.String(), "role": "admin",
	})

	var stray []string
	router := gin.New()
	router.GET("/", RequireAuth(testSecret), func(c *gin.Context) {
		for _, key := range []string{"userID", "userRole"} {
			if _, ok := c.Get(key); ok {
				stray = append(stray, key)
			}
		}
		id, ok := IdentityFrom(c)
		assert.True(t, ok)
		assert.Equal(t, user, id.UserID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, stray)
}
