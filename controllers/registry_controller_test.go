package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/stretchr/testify/assert"
)

func TestReloadRegistry(t *testing.T) {
	f := setupControllerApp(t)

	router := setupTestRouter()
	router.POST("/registry/reload", mockAuthMiddleware("admin-1"), ReloadRegistry)

	// a kitchen added after startup is invisible until a reload
	assert.NoError(t, f.db.Create(&models.Kitchen{
		ID:            "k2",
		Name:          "Kitchen k2",
		PickupAddress: "Pickup street 2",
		OwnerChatID:   901,
		StaffChatIDs:  "601",
		Status:        models.KitchenActive,
	}).Error)
	assert.Len(t, f.app.Registry.All(), 1)

	w := postJSON(router, "/registry/reload", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["kitchens"])
	assert.Len(t, f.app.Registry.All(), 2)
}

func TestListKitchens(t *testing.T) {
	setupControllerApp(t)

	router := setupTestRouter()
	router.GET("/kitchens", ListKitchens)

	req, _ := http.NewRequest(http.MethodGet, "/kitchens", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter()
	router.GET("/health", HealthCheck)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
