package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/barakat-platform/kitchen-orders-api/services"
	"github.com/stretchr/testify/assert"
)

func multipartProofRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("proof", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	writer.Close()

	req, _ := http.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadProof(t *testing.T) {
	f := setupControllerApp(t)
	order := f.seedOrder(t, models.KindDelivery)

	storage := services.NewMockProofStorage()
	storage.SetAsMockForTesting()
	defer services.SetProofStorage(nil)

	router := setupTestRouter()
	router.POST("/orders/:id/proof", UploadProof)

	req := multipartProofRequest(t, "/orders/"+order.ID+"/proof?kitchen_id=k1", "payment.png", []byte{1, 2, 3})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.NotEmpty(t, data["payment_proof_key"])
	assert.Contains(t, data["proof_url"], "mock-bucket.example.com")

	var stored models.Order
	assert.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.NotNil(t, stored.PaymentProofKey)
}

func TestUploadProof_Validation(t *testing.T) {
	f := setupControllerApp(t)
	order := f.seedOrder(t, models.KindDelivery)

	storage := services.NewMockProofStorage()
	storage.SetAsMockForTesting()
	defer services.SetProofStorage(nil)

	router := setupTestRouter()
	router.POST("/orders/:id/proof", UploadProof)

	// wrong format
	req := multipartProofRequest(t, "/orders/"+order.ID+"/proof?kitchen_id=k1", "payment.pdf", []byte{1, 2, 3})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_FILE_FORMAT", errorData["code"])

	// unknown order
	req = multipartProofRequest(t, "/orders/missing/proof?kitchen_id=k1", "payment.png", []byte{1, 2, 3})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// missing file field
	emptyReq, _ := http.NewRequest(http.MethodPost, "/orders/"+order.ID+"/proof?kitchen_id=k1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, emptyReq)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadProof_StorageNotConfigured(t *testing.T) {
	f := setupControllerApp(t)
	order := f.seedOrder(t, models.KindDelivery)
	services.SetProofStorage(nil)

	router := setupTestRouter()
	router.POST("/orders/:id/proof", UploadProof)

	req := multipartProofRequest(t, "/orders/"+order.ID+"/proof?kitchen_id=k1", "payment.png", []byte{1, 2, 3})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
