package controllers

import (
	"net/http"

	"github.com/barakat-platform/kitchen-orders-api/config"
	"github.com/barakat-platform/kitchen-orders-api/services"
	"github.com/barakat-platform/kitchen-orders-api/utils"
	"github.com/gin-gonic/gin"
)

// UploadProof handles POST /api/v1/orders/:id/proof - attaches a buyer
// payment screenshot to an order. The screenshot itself lives in object
// storage; the order row carries only the key.
func UploadProof(c *gin.Context) {
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

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "proof file is required",
			},
		})
		return
	}

	if err := utils.ValidateProofFile(fileHeader); err != nil {
		uploadErr, ok := err.(*utils.FileUploadError)
		if !ok {
			uploadErr = &utils.FileUploadError{Code: "INVALID_FILE", Message: err.Error()}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    uploadErr.Code,
				"message": uploadErr.Message,
			},
		})
		return
	}

	content, err := utils.ReadProofFile(fileHeader)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": "Failed to read uploaded file",
			},
		})
		return
	}

	storage := services.GetProofStorage()
	if storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Proof storage is not configured",
			},
		})
		return
	}

	key, err := storage.Put(c.Request.Context(), order.ID, content, "image/png")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store payment proof",
			},
		})
		return
	}

	db := config.GetDB()
	if err := db.Model(order).Update("payment_proof_key", key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to record payment proof",
			},
		})
		return
	}
	order.PaymentProofKey = &key

	if url, err := storage.URL(c.Request.Context(), key); err == nil && url != "" {
		order.PaymentProofURL = &url
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
