package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kamau/dawamart-api/initializers"
	"github.com/Kamau/dawamart-api/models"
	"github.com/Kamau/dawamart-api/routes"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Transaction{},
		&models.CallbackLog{},
	))

	prev := initializers.DB
	initializers.DB = db
	t.Cleanup(func() {
		initializers.DB = prev
		sqlDB.Close()
	})
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	server := gin.New()
	routes.PaymentRoutes(server)
	return server
}

func authHeader(t *testing.T) string {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  1,
		"role": "customer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func seedCompletedTransaction(t *testing.T) *models.Transaction {
	t.Helper()
	code := 0
	txn := models.Transaction{
		OrderID:            1,
		CheckoutRequestID:  "ws_CO_TEST_1",
		MerchantRequestID:  "29115-34620561-1",
		Amount:             500,
		PhoneNumber:        "254712345678",
		Status:             models.TxnCompleted,
		ResultCode:         &code,
		ResultDesc:         "The service request is processed successfully.",
		MpesaReceiptNumber: "NLJ7RT61SV",
	}
	require.NoError(t, initializers.DB.Create(&txn).Error)
	return &txn
}

const gatewayAck = `{"ResultCode":0,"ResultDesc":"Accepted"}`

func TestCallbackAcksMalformedBody(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment/callback", strings.NewReader("not json at all"))
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, gatewayAck, w.Body.String())
}

func TestCallbackAcksUnknownCheckoutRequest(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_UNKNOWN","ResultCode":0,"ResultDesc":"ok"}}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment/callback", strings.NewReader(body))
	server.ServeHTTP(w, req)

	// Internal not-found must not leak to the gateway, or it will retry.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, gatewayAck, w.Body.String())
}

// A body carrying only a checkout request ID and no ResultCode must be
// acked and discarded; it must never complete the transaction or mark the
// order paid.
func TestCallbackWithoutResultCodeNotApplied(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	order := models.Order{
		UserID:            7,
		Status:            models.OrderPending,
		PaymentStatus:     models.PaymentPending,
		PaymentMethod:     models.PaymentMethodMobileMoney,
		CheckoutRequestID: "ws_CO_TEST_1",
	}
	require.NoError(t, initializers.DB.Create(&order).Error)
	txn := models.Transaction{
		OrderID:           int(order.ID),
		CheckoutRequestID: "ws_CO_TEST_1",
		Amount:            500,
		PhoneNumber:       "254712345678",
		Status:            models.TxnPending,
	}
	require.NoError(t, initializers.DB.Create(&txn).Error)

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_TEST_1","ResultDesc":"partial delivery"}}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment/callback", strings.NewReader(body))
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, gatewayAck, w.Body.String())

	var stored models.Transaction
	require.NoError(t, initializers.DB.Where("checkout_request_id = ?", "ws_CO_TEST_1").First(&stored).Error)
	assert.Equal(t, models.TxnPending, stored.Status)
	assert.Empty(t, stored.MpesaReceiptNumber)

	var storedOrder models.Order
	require.NoError(t, initializers.DB.First(&storedOrder, order.ID).Error)
	assert.Equal(t, models.PaymentPending, storedOrder.PaymentStatus)
}

func TestCallbackCompletesTransaction(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	order := models.Order{
		UserID:            7,
		Status:            models.OrderPending,
		PaymentStatus:     models.PaymentPending,
		PaymentMethod:     models.PaymentMethodMobileMoney,
		CheckoutRequestID: "ws_CO_TEST_1",
	}
	require.NoError(t, initializers.DB.Create(&order).Error)
	txn := models.Transaction{
		OrderID:           int(order.ID),
		CheckoutRequestID: "ws_CO_TEST_1",
		Amount:            500,
		PhoneNumber:       "254712345678",
		Status:            models.TxnPending,
	}
	require.NoError(t, initializers.DB.Create(&txn).Error)

	body := `{
	  "Body": {
	    "stkCallback": {
	      "MerchantRequestID": "29115-34620561-1",
	      "CheckoutRequestID": "ws_CO_TEST_1",
	      "ResultCode": 0,
	      "ResultDesc": "The service request is processed successfully.",
	      "CallbackMetadata": {
	        "Item": [
	          {"Name": "Amount", "Value": 500.00},
	          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
	          {"Name": "TransactionDate", "Value": 20191219102115},
	          {"Name": "PhoneNumber", "Value": 254712345678}
	        ]
	      }
	    }
	  }
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment/callback", strings.NewReader(body))
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, gatewayAck, w.Body.String())

	var updated models.Transaction
	require.NoError(t, initializers.DB.Where("checkout_request_id = ?", "ws_CO_TEST_1").First(&updated).Error)
	assert.Equal(t, models.TxnCompleted, updated.Status)
	assert.Equal(t, "NLJ7RT61SV", updated.MpesaReceiptNumber)

	var paidOrder models.Order
	require.NoError(t, initializers.DB.First(&paidOrder, order.ID).Error)
	assert.Equal(t, models.PaymentPaid, paidOrder.PaymentStatus)
}

func TestGetPaymentStatusTerminal(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()
	seedCompletedTransaction(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payment/status/ws_CO_TEST_1", nil)
	req.Header.Set("Authorization", authHeader(t))
	server.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp["status"])
	assert.Equal(t, "NLJ7RT61SV", resp["mpesaReceiptNumber"])
}

func TestGetPaymentStatusUnknown(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payment/status/ws_CO_NOPE", nil)
	req.Header.Set("Authorization", authHeader(t))
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPaymentStatusRequiresAuth(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payment/status/ws_CO_TEST_1", nil)
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInitiatePaymentInvalidBody(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment/initiate", strings.NewReader(`{"phone":"0712345678"}`))
	req.Header.Set("Authorization", authHeader(t))
	req.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteOrderNotFound(t *testing.T) {
	setupTestDB(t)
	server := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment/complete", strings.NewReader(`{"orderId": 404}`))
	req.Header.Set("Authorization", authHeader(t))
	req.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
