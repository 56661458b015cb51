package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/stretchr/testify/assert"
)

func (f *controllerFixture) seedUnpaidCommission(t *testing.T, amount int64) *models.Order {
	order := f.seedOrder(t, models.KindPickup)
	if err := f.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":                models.StatusApproved,
		"commission_amount":     amount,
		"commission_status":     models.CommissionUnpaid,
		"commission_accrued_at": time.Now().UTC(),
	}).Error; err != nil {
		t.Fatalf("Failed to seed unpaid commission: %v", err)
	}
	return order
}

func TestSettle(t *testing.T) {
	f := setupControllerApp(t)
	f.seedUnpaidCommission(t, 4000)
	f.seedUnpaidCommission(t, 6000)

	router := setupTestRouter()
	router.POST("/kitchens/:id/settlements", mockAuthMiddleware("admin-1"), Settle)

	w := postJSON(router, "/kitchens/k1/settlements", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.True(t, data["settled"].(bool))
	payment := data["payment"].(map[string]interface{})
	assert.Equal(t, float64(10000), payment["total_amount"])
	assert.Equal(t, float64(2), payment["order_count"])
	assert.Equal(t, "admin-1", payment["settled_by"])

	// a second settlement finds nothing and is not an error
	w = postJSON(router, "/kitchens/k1/settlements", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data = response["data"].(map[string]interface{})
	assert.False(t, data["settled"].(bool))
}

func TestSettle_UnknownKitchen(t *testing.T) {
	setupControllerApp(t)

	router := setupTestRouter()
	router.POST("/kitchens/:id/settlements", mockAuthMiddleware("admin-1"), Settle)

	w := postJSON(router, "/kitchens/missing/settlements", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard(t *testing.T) {
	f := setupControllerApp(t)
	f.seedOrder(t, models.KindPickup)
	f.seedUnpaidCommission(t, 4000)
	f.seedUnpaidCommission(t, 2500)

	rejected := f.seedOrder(t, models.KindPickup)
	assert.NoError(t, f.db.Model(&models.Order{}).
		Where("id = ?", rejected.ID).
		Update("status", models.StatusRejected).Error)

	router := setupTestRouter()
	router.GET("/kitchens/:id/dashboard", mockAuthMiddleware("staff-1"), Dashboard)

	req, _ := http.NewRequest(http.MethodGet, "/kitchens/k1/dashboard", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["created"])
	assert.Equal(t, float64(2), data["approved"])
	assert.Equal(t, float64(1), data["rejected"])
	assert.Equal(t, float64(6500), data["unpaid_commission"])
}
