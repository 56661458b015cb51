package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetStaffID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns the staff identity set by the token middleware", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("staff_id", "auth0|staff123")

		staffID, err := GetStaffID(c)
		assert.NoError(t, err)
		assert.Equal(t, "auth0|staff123", staffID)
	})

	t.Run("fails when identity is missing", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		_, err := GetStaffID(c)
		assert.Error(t, err)
		authErr, ok := err.(*AuthError)
		assert.True(t, ok)
		assert.Equal(t, "MISSING_STAFF_ID", authErr.Code)
	})

	t.Run("fails when identity is not a string", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("staff_id", 42)

		_, err := GetStaffID(c)
		assert.Error(t, err)
	})
}

func TestCustomClaimsHasScope(t *testing.T) {
	claims := CustomClaims{Scope: "read:orders write:orders"}

	assert.True(t, claims.HasScope("read:orders"))
	assert.True(t, claims.HasScope("write:orders"))
	assert.False(t, claims.HasScope("admin:orders"))
}

func TestCanAccessKitchen(t *testing.T) {
	tests := []struct {
		name      string
		kitchens  string
		kitchenID string
		expected  bool
	}{
		{"no claim grants everything", "", "k1", true},
		{"listed kitchen", "k1,k2", "k1", true},
		{"listed with spaces", " k1 , k2 ", "k2", true},
		{"unlisted kitchen", "k1,k2", "k3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := CustomClaims{Kitchens: tt.kitchens}
			assert.Equal(t, tt.expected, claims.CanAccessKitchen(tt.kitchenID))
		})
	}
}

// mockClaimsMiddleware injects validated claims the way EnsureValidToken does
func mockClaimsMiddleware(kitchens string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("validated_claims", &validator.ValidatedClaims{
			CustomClaims: &CustomClaims{Kitchens: kitchens},
		})
		c.Next()
	}
}

func TestRequireKitchenAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	}

	t.Run("allows a listed kitchen", func(t *testing.T) {
		router := gin.New()
		router.GET("/kitchens/:id/dashboard", mockClaimsMiddleware("k1,k2"), RequireKitchenAccess(), handler)

		req, _ := http.NewRequest(http.MethodGet, "/kitchens/k1/dashboard", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a foreign kitchen", func(t *testing.T) {
		router := gin.New()
		router.GET("/kitchens/:id/dashboard", mockClaimsMiddleware("k1"), RequireKitchenAccess(), handler)

		req, _ := http.NewRequest(http.MethodGet, "/kitchens/k2/dashboard", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin token without claim passes", func(t *testing.T) {
		router := gin.New()
		router.GET("/kitchens/:id/dashboard", mockClaimsMiddleware(""), RequireKitchenAccess(), handler)

		req, _ := http.NewRequest(http.MethodGet, "/kitchens/k9/dashboard", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects requests without claims", func(t *testing.T) {
		router := gin.New()
		router.GET("/kitchens/:id/dashboard", RequireKitchenAccess(), handler)

		req, _ := http.NewRequest(http.MethodGet, "/kitchens/k1/dashboard", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
