package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kamau/dawamart-api/initializers"
	"github.com/Kamau/dawamart-api/models"
	"github.com/Kamau/dawamart-api/mpesa"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sources recorded on callback log rows.
const (
	SourceCallback = "callback"
	SourceQuery    = "query"
)

// Gateway result codes with dedicated handling. Everything else non-zero
// is a plain failure.
const (
	resultCodeSuccess         = 0
	resultCodeCancelledByUser = 1032
	resultCodeTimeout         = 1037
)

// MapResultCode buckets a gateway result code into the terminal transaction
// status it produces. This is the single mapping shared by the callback and
// the polling entry points.
func MapResultCode(code int) models.TransactionStatus {
	switch code {
	case resultCodeSuccess:
		return models.TxnCompleted
	case resultCodeCancelledByUser, resultCodeTimeout:
		return models.TxnCancelled
	default:
		return models.TxnFailed
	}
}

// ProcessOutcome reports what ApplyResult did.
type ProcessOutcome struct {
	Status models.TransactionStatus
	// Applied is false when the transaction was already terminal and the
	// delivery was only logged.
	Applied bool
}

// ApplyResult is the shared update path for callback and query results.
// The status transition is a single conditional update that only lands
// while the row is still PENDING, so a racing callback and poll cannot
// both win; the loser sees the row already terminal and becomes a no-op
// beyond the audit log append.
func ApplyResult(res mpesa.PaymentResult, raw []byte, source string) (*ProcessOutcome, error) {
	entry := models.CallbackLog{
		CheckoutRequestID: res.CheckoutRequestID,
		Source:            source,
		Payload:           datatypes.JSON(raw),
	}
	if err := initializers.DB.Create(&entry).Error; err != nil {
		logrus.Println("Failed to append callback log:", err)
	}

	var txn models.Transaction
	err := initializers.DB.Where("checkout_request_id = ?", res.CheckoutRequestID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, res.CheckoutRequestID)
		}
		return nil, err
	}

	status := MapResultCode(res.ResultCode)
	updates := map[string]any{
		"status":      status,
		"result_code": res.ResultCode,
		"result_desc": res.ResultDesc,
	}
	if len(raw) > 0 {
		updates["raw_callback"] = datatypes.JSON(raw)
	}
	if status == models.TxnCompleted {
		updates["mpesa_receipt_number"] = res.ReceiptNumber
		updates["transaction_date"] = res.TransactionDate
	}

	result := initializers.DB.Model(&models.Transaction{}).
		Where("checkout_request_id = ? AND status = ?", res.CheckoutRequestID, models.TxnPending).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Terminal already: a duplicate or late delivery, or a racing
		// delivery that landed first. The first outcome stands. Reload to
		// report the status that actually won.
		Metrics.Duplicates.Inc()
		if status == models.TxnCompleted && res.ReceiptNumber != "" {
			backfillReceipt(res)
		}
		current, err := loadTransaction(res.CheckoutRequestID)
		if err != nil {
			return nil, err
		}
		logrus.WithField("checkoutRequestId", res.CheckoutRequestID).
			Printf("Ignoring %s result %d for terminal transaction (status %s)", source, res.ResultCode, current.Status)
		return &ProcessOutcome{Status: current.Status, Applied: false}, nil
	}

	switch status {
	case models.TxnCompleted:
		err = initializers.DB.Model(&models.Order{}).
			Where("checkout_request_id = ? AND payment_status <> ?", res.CheckoutRequestID, models.PaymentPaid).
			Update("payment_status", models.PaymentPaid).Error
		Metrics.Completed.Inc()
	case models.TxnCancelled:
		err = markOrderUnpaid(res.CheckoutRequestID)
		Metrics.Cancelled.Inc()
	default:
		err = markOrderUnpaid(res.CheckoutRequestID)
		Metrics.Failed.Inc()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order payment status: %w", err)
	}

	return &ProcessOutcome{Status: status, Applied: true}, nil
}

// backfillReceipt fills in the receipt and transaction date on a COMPLETED
// row that has none. The polling path can win the race with a query
// response, which never carries a receipt; the late callback still does.
// Only the empty columns are touched, the terminal status never changes.
func backfillReceipt(res mpesa.PaymentResult) {
	err := initializers.DB.Model(&models.Transaction{}).
		Where("checkout_request_id = ? AND status = ? AND mpesa_receipt_number = ''",
			res.CheckoutRequestID, models.TxnCompleted).
		Updates(map[string]any{
			"mpesa_receipt_number": res.ReceiptNumber,
			"transaction_date":     res.TransactionDate,
		}).Error
	if err != nil {
		logrus.Println("Failed to backfill receipt:", err)
	}
}

func markOrderUnpaid(checkoutRequestID string) error {
	return initializers.DB.Model(&models.Order{}).
		Where("checkout_request_id = ? AND payment_status = ?", checkoutRequestID, models.PaymentPending).
		Update("payment_status", models.PaymentFailed).Error
}

// QueryAndApply returns the best-known state of a transaction, actively
// reconciling with the gateway while the stored row is still PENDING. A
// transport failure leaves the row untouched: an unreachable gateway makes
// the outcome unknown, never failed.
func QueryAndApply(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	txn, err := loadTransaction(checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if txn.Status.Terminal() {
		return txn, nil
	}

	res, raw, err := mpesa.Default.QueryStatus(ctx, checkoutRequestID)
	if err != nil {
		if errors.Is(err, mpesa.ErrResultPending) {
			return txn, nil
		}
		logrus.WithField("checkoutRequestId", checkoutRequestID).
			Println("Status query failed, keeping transaction pending:", err)
		return txn, nil
	}

	if _, err := ApplyResult(*res, raw, SourceQuery); err != nil {
		return nil, err
	}
	return loadTransaction(checkoutRequestID)
}

func loadTransaction(checkoutRequestID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := initializers.DB.Where("checkout_request_id = ?", checkoutRequestID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, checkoutRequestID)
		}
		return nil, err
	}
	return &txn, nil
}
