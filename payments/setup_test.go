package payments

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
	"github.com/Kamau/dawamart-api/mpesa"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB swaps the package-level DB for an in-memory sqlite database
// for the duration of one test. A single open connection keeps the shared
// in-memory database alive and serializes access the way the production
// MySQL row locks would.
func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// setupGateway points mpesa.Default at a fake Daraja that serves tokens and
// delegates push/query traffic to handler.
func setupGateway(t *testing.T, handler http.HandlerFunc) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			w.Write([]byte(`{"access_token":"test-token","expires_in":"3599"}`))
			return
		}
		if handler == nil {
			http.Error(w, "unexpected gateway call", http.StatusInternalServerError)
			return
		}
		handler(w, r)
	}))

	prev := mpesa.Default
	mpesa.Default = mpesa.NewClient(mpesa.Config{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://dawamart.store/payment/callback",
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
	}, time.Now)
	t.Cleanup(func() {
		mpesa.Default = prev
		srv.Close()
	})
}

func acceptedPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_TEST_1",
			"ResponseCode": "0",
			"ResponseDescription": "Success. Request accepted for processing"
		}`))
	}
}

func seedOrder(t *testing.T, method models.PaymentMethod) *models.Order {
	t.Helper()

	snapshots := []models.OrderItemSnapshot{
		{ProductId: 1, Name: "Paracetamol 500mg", Price: 200, Quantity: 2},
		{ProductId: 2, Name: "Vitamin C 1000mg", Price: 100, Quantity: 1},
	}
	payload, err := json.Marshal(snapshots)
	require.NoError(t, err)

	order := models.Order{
		UserID:           7,
		FirstName:        "Wanjiku",
		LastName:         "Njeri",
		Email:            "wanjiku@example.com",
		Phone:            "0712345678",
		DeliveryLocation: "Nairobi CBD",
		Total:            500,
		Status:           models.OrderPending,
		PaymentStatus:    models.PaymentUnpaid,
		PaymentMethod:    method,
		ItemsPayload:     payload,
	}
	require.NoError(t, initializers.DB.Create(&order).Error)
	return &order
}

func seedPendingTransaction(t *testing.T, orderID int, checkoutRequestID string) *models.Transaction {
	t.Helper()

	txn := models.Transaction{
		OrderID:           orderID,
		CheckoutRequestID: checkoutRequestID,
		MerchantRequestID: "29115-34620561-1",
		Amount:            500,
		PhoneNumber:       "254712345678",
		Status:            models.TxnPending,
	}
	require.NoError(t, initializers.DB.Create(&txn).Error)

	err := initializers.DB.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"checkout_request_id": checkoutRequestID,
			"payment_status":      models.PaymentPending,
		}).Error
	require.NoError(t, err)
	return &txn
}

func successResult(checkoutRequestID, receipt string) mpesa.PaymentResult {
	return mpesa.PaymentResult{
		CheckoutRequestID: checkoutRequestID,
		MerchantRequestID: "29115-34620561-1",
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
		ReceiptNumber:     receipt,
		Amount:            "500",
		PhoneNumber:       "254712345678",
		TransactionDate:   "20240314090507",
	}
}
