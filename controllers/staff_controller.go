package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/middleware"
	"github.com/barakat-platform/kitchen-orders-api/services"
	"github.com/gin-gonic/gin"
)

// DecisionRequest represents the request body for a staff approve/reject
type DecisionRequest struct {
	KitchenID string `json:"kitchen_id"`
	Decision  string `json:"decision" binding:"required,oneof=approve reject"`
}

// Decide handles POST /api/v1/orders/:id/decision - applies a staff decision
func Decide(c *gin.Context) {
	staffID, err := middleware.GetStaffID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract staff identity",
			},
		})
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	app := services.GetApp()
	result, err := app.Decisions.HandleDecision(
		c.Request.Context(), req.KitchenID, c.Param("id"), req.Decision, staffID)
	if err != nil {
		respondDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":     result.Order,
			"needs_eta": result.NeedsEta,
		},
	})
}

// EtaRequest represents the request body for the staff ETA commitment.
// Either minutes (preset offset) or pickup_eta_at (manual timestamp).
type EtaRequest struct {
	KitchenID   string     `json:"kitchen_id"`
	Minutes     int        `json:"minutes"`
	PickupEtaAt *time.Time `json:"pickup_eta_at"`
}

// ChooseEta handles POST /api/v1/orders/:id/eta - commits the courier ETA
// and triggers dispatch
func ChooseEta(c *gin.Context) {
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

	var req EtaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	if req.PickupEtaAt == nil && req.Minutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Either minutes or pickup_eta_at is required",
			},
		})
		return
	}

	app := services.GetApp()
	order, err := app.Dispatch.Dispatch(c.Request.Context(), req.KitchenID, c.Param("id"), services.EtaChoice{
		Minutes: req.Minutes,
		At:      req.PickupEtaAt,
	})
	if err != nil {
		respondDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// NoCourierRequest represents the request body for declining the courier
type NoCourierRequest struct {
	KitchenID string `json:"kitchen_id"`
}

// DeclineCourier handles POST /api/v1/orders/:id/no-courier - terminal
// decision not to call a courier for an approved delivery order
func DeclineCourier(c *gin.Context) {
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

	var req NoCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	app := services.GetApp()
	order, err := app.Dispatch.DeclineCourier(c.Request.Context(), req.KitchenID, c.Param("id"))
	if err != nil {
		respondDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// RetryCourier handles POST /api/v1/orders/:id/courier/retry - re-runs a
// failed courier dispatch. Available any number of times.
func RetryCourier(c *gin.Context) {
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

	var req NoCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	app := services.GetApp()
	order, err := app.Dispatch.RetryDispatch(c.Request.Context(), req.KitchenID, c.Param("id"))
	if err != nil {
		respondDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// respondDecisionError maps core errors onto the API envelope. AlreadyHandled
// is an informational notice, never an alarm.
func respondDecisionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found in any reachable kitchen",
			},
		})
	case errors.Is(err, services.ErrAlreadyHandled):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ALREADY_HANDLED",
				"message": "Order already processed",
			},
		})
	case errors.Is(err, services.ErrKitchenNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "KITCHEN_NOT_FOUND",
				"message": "Kitchen is not registered",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORE_ERROR",
				"message": "Operation failed, please retry",
			},
		})
	}
}
