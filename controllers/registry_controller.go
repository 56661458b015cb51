package controllers

import (
	"net/http"

	"github.com/barakat-platform/kitchen-orders-api/middleware"
	"github.com/barakat-platform/kitchen-orders-api/services"
	"github.com/gin-gonic/gin"
)

// ReloadRegistry handles POST /api/v1/registry/reload - swaps in a fresh
// kitchen snapshot. Until this is called, routing keeps serving the
// previous snapshot.
func ReloadRegistry(c *gin.Context) {
	if _, err := middleware.GetStaffID(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract staff identity",
			},
		})
		return
	}

	app := services.GetApp()
	if err := app.Registry.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RELOAD_FAILED",
				"message": "Failed to reload the kitchen registry",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"kitchens": len(app.Registry.All()),
		},
	})
}

// ListKitchens handles GET /api/v1/kitchens - active kitchens from the
// current registry snapshot
func ListKitchens(c *gin.Context) {
	app := services.GetApp()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    app.Registry.Active(),
	})
}

// HealthCheck handles GET /health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status": "healthy",
		},
	})
}
