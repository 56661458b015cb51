package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/barakat-platform/kitchen-orders-api/config"
	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/barakat-platform/kitchen-orders-api/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderItemRequest is one cart line of an incoming order
type OrderItemRequest struct {
	Name         string `json:"name" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	BuyerPrice   int64  `json:"buyer_price" binding:"required,gt=0"`
	KitchenPrice int64  `json:"kitchen_price" binding:"required,gt=0"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	KitchenID       string             `json:"kitchen_id" binding:"required"`
	BuyerID         int64              `json:"buyer_id" binding:"required"`
	BuyerName       string             `json:"buyer_name"`
	BuyerPhone      string             `json:"buyer_phone"`
	BuyerUsername   string             `json:"buyer_username"`
	FulfillmentKind string             `json:"fulfillment_kind" binding:"required"`
	DeliveryAddress string             `json:"delivery_address"`
	Comment         string             `json:"comment"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder handles POST /api/v1/orders - appends a new order row.
// Staff are NOT notified here: the reconciliation loop picks the row up on
// its next pass, whichever process runs it.
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
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

	if req.FulfillmentKind != models.KindPickup && req.FulfillmentKind != models.KindDelivery {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "fulfillment_kind must be pickup or delivery",
			},
		})
		return
	}

	if req.FulfillmentKind == models.KindDelivery && req.DeliveryAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "delivery_address is required for delivery orders",
			},
		})
		return
	}

	app := services.GetApp()
	kitchen, err := app.Registry.Resolve(req.KitchenID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "KITCHEN_NOT_FOUND",
				"message": "Kitchen is not registered",
			},
		})
		return
	}
	if !kitchen.IsActive() {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "KITCHEN_INACTIVE",
				"message": "Kitchen is not accepting orders",
			},
		})
		return
	}

	cfg := config.GetConfig()
	var subtotal int64
	items := make([]models.OrderItem, 0, len(req.Items))
	summaryParts := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		subtotal += it.BuyerPrice * int64(it.Quantity)
		items = append(items, models.OrderItem{
			Name:         it.Name,
			Quantity:     it.Quantity,
			BuyerPrice:   it.BuyerPrice,
			KitchenPrice: it.KitchenPrice,
		})
		summaryParts = append(summaryParts, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}

	var deliveryFee int64
	if req.FulfillmentKind == models.KindDelivery && subtotal < cfg.FreeDeliveryFrom {
		deliveryFee = cfg.DeliveryFee
	}

	order := models.Order{
		ID:               uuid.NewString(),
		KitchenID:        kitchen.ID,
		BuyerID:          req.BuyerID,
		ItemsSummary:     strings.Join(summaryParts, "; "),
		Items:            items,
		TotalAmount:      subtotal + deliveryFee,
		DeliveryFee:      deliveryFee,
		FulfillmentKind:  req.FulfillmentKind,
		Comment:          req.Comment,
		DeliveryAddress:  req.DeliveryAddress,
		Status:           models.StatusCreated,
		CourierState:     models.CourierStateNone,
		CommissionStatus: models.CommissionNone,
	}

	db := config.GetDB()
	if err := db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	// keep the buyer profile current for staff cards and courier payloads
	profile := models.BuyerProfile{
		ChatID:      req.BuyerID,
		Username:    req.BuyerUsername,
		RealName:    req.BuyerName,
		Phone:       req.BuyerPhone,
		LastAddress: req.DeliveryAddress,
	}
	if err := db.Save(&profile).Error; err != nil {
		// profile enriches notifications only, the order row is already durable
		log.Printf("Failed to save buyer profile %d: %v", req.BuyerID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrder handles GET /api/v1/orders/:id - fetches one order (staff view)
func GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	kitchenID := c.Query("kitchen_id")

	app := services.GetApp()
	order, err := app.Decisions.FindOrder(c.Request.Context(), kitchenID, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if order.PaymentProofKey != nil {
		if storage := services.GetProofStorage(); storage != nil {
			if url, err := storage.URL(c.Request.Context(), *order.PaymentProofKey); err == nil && url != "" {
				order.PaymentProofURL = &url
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
