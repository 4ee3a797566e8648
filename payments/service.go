package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kamau/dawamart-api/initializers"
	"github.com/Kamau/dawamart-api/models"
	"github.com/Kamau/dawamart-api/mpesa"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Gateway-accepted amount bounds in KES, inclusive.
const (
	MinAmount = 1
	MaxAmount = 70000
)

// AccountReference must fit in 12 characters, TransactionDesc in 13.
const transactionDesc = "DawamartOrder"

// Initiate validates the request, sends the STK push and persists the
// attempt. The PENDING transaction row is committed before the checkout
// request ID is returned, so a callback arriving immediately always has a
// row to match against.
func Initiate(ctx context.Context, orderID int, phoneNumber string, amount int) (string, error) {
	if amount < MinAmount || amount > MaxAmount {
		return "", fmt.Errorf("%w: %d", ErrAmountOutOfRange, amount)
	}
	msisdn, err := mpesa.NormalizePhone(phoneNumber)
	if err != nil {
		return "", err
	}

	var order models.Order
	if err := initializers.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return "", err
	}
	if order.PaymentMethod != models.PaymentMethodMobileMoney {
		return "", ErrWrongPaymentMethod
	}
	if order.PaymentStatus == models.PaymentPaid {
		return "", ErrAlreadyPaid
	}

	accountRef := fmt.Sprintf("DWM%d", orderID)
	push, err := mpesa.Default.STKPush(ctx, msisdn, amount, accountRef, transactionDesc)
	if err != nil {
		// Nothing reached the gateway for certain; no row is written and
		// the caller may retry.
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if !push.Response.Accepted() {
		recordRejectedPush(orderID, msisdn, amount, push)
		Metrics.Rejected.Inc()
		return "", fmt.Errorf("%w: %s", ErrGatewayRejected, push.Response.Message())
	}

	txn := models.Transaction{
		OrderID:           orderID,
		CheckoutRequestID: push.Response.CheckoutRequestID,
		MerchantRequestID: push.Response.MerchantRequestID,
		Amount:            amount,
		PhoneNumber:       msisdn,
		Status:            models.TxnPending,
		RawRequest:        datatypes.JSON(push.RawRequest),
		RawResponse:       datatypes.JSON(push.RawResponse),
	}
	if err := initializers.DB.Create(&txn).Error; err != nil {
		return "", fmt.Errorf("failed to persist transaction: %w", err)
	}

	err = initializers.DB.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"checkout_request_id": push.Response.CheckoutRequestID,
			"payment_status":      models.PaymentPending,
		}).Error
	if err != nil {
		return "", fmt.Errorf("failed to link transaction to order: %w", err)
	}

	Metrics.Initiated.Inc()
	return push.Response.CheckoutRequestID, nil
}

// recordRejectedPush keeps a FAILED row for attempts the gateway refused.
// No checkout request ID was issued, so a local correlation ID fills the
// unique column.
func recordRejectedPush(orderID int, msisdn string, amount int, push *mpesa.PushResult) {
	txn := models.Transaction{
		OrderID:           orderID,
		CheckoutRequestID: "REJ-" + uuid.NewString(),
		Amount:            amount,
		PhoneNumber:       msisdn,
		Status:            models.TxnFailed,
		ResultDesc:        push.Response.Message(),
		RawRequest:        datatypes.JSON(push.RawRequest),
		RawResponse:       datatypes.JSON(push.RawResponse),
	}
	if err := initializers.DB.Create(&txn).Error; err != nil {
		logrus.Println("Failed to record rejected push:", err)
	}
}
