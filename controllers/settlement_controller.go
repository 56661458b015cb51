package controllers

import (
	"errors"
	"net/http"

	"github.com/barakat-platform/kitchen-orders-api/config"
	"github.com/barakat-platform/kitchen-orders-api/middleware"
	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/barakat-platform/kitchen-orders-api/services"
	"github.com/gin-gonic/gin"
)

// Settle handles POST /api/v1/kitchens/:id/settlements - closes all unpaid
// commissions of one kitchen under a single payment record
func Settle(c *gin.Context) {
	settlerID, err := middleware.GetStaffID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract settler identity",
			},
		})
		return
	}

	kitchenID := c.Param("id")
	app := services.GetApp()

	if _, err := app.Registry.Resolve(kitchenID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "KITCHEN_NOT_FOUND",
				"message": "Kitchen is not registered",
			},
		})
		return
	}

	payment, err := app.Commission.Settle(c.Request.Context(), kitchenID, settlerID)
	if errors.Is(err, services.ErrNothingToSettle) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"settled": false,
				"message": "No unpaid commissions",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SETTLEMENT_FAILED",
				"message": "Failed to settle commissions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"settled": true,
			"payment": payment,
		},
	})
}

// Dashboard handles GET /api/v1/kitchens/:id/dashboard - order counts and
// outstanding commission for the kitchen owner
func Dashboard(c *gin.Context) {
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

	kitchenID := c.Param("id")
	app := services.GetApp()

	if _, err := app.Registry.Resolve(kitchenID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "KITCHEN_NOT_FOUND",
				"message": "Kitchen is not registered",
			},
		})
		return
	}

	db := config.GetDB()
	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Where("kitchen_id = ?", kitchenID).
		Group("status").
		Scan(&counts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load dashboard numbers",
			},
		})
		return
	}

	byStatus := map[string]int64{
		models.StatusCreated:  0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for _, sc := range counts {
		byStatus[sc.Status] = sc.Count
	}

	unpaid, err := app.Commission.UnpaidTotal(c.Request.Context(), kitchenID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to sum unpaid commissions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"created":           byStatus[models.StatusCreated],
			"approved":          byStatus[models.StatusApproved],
			"rejected":          byStatus[models.StatusRejected],
			"unpaid_commission": unpaid,
		},
	})
}
