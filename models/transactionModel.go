package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "PENDING"
	TxnCompleted TransactionStatus = "COMPLETED"
	TxnFailed    TransactionStatus = "FAILED"
	TxnCancelled TransactionStatus = "CANCELLED"
)

// Terminal reports whether the status can no longer change. Transactions
// move from PENDING to exactly one terminal status, once.
func (s TransactionStatus) Terminal() bool {
	return s != TxnPending
}

// Transaction records one push-payment attempt against the gateway. Rows
// are never deleted; they are the audit trail for every attempt, including
// the ones the gateway rejected outright.
type Transaction struct {
	gorm.Model
	OrderID           int               `json:"orderId" gorm:"index"`
	CheckoutRequestID string            `json:"checkoutRequestId" gorm:"size:64;uniqueIndex"`
	MerchantRequestID string            `json:"merchantRequestId" gorm:"size:64"`
	Amount            int               `json:"amount"`
	PhoneNumber       string            `json:"phoneNumber" gorm:"size:16"`
	Status            TransactionStatus `json:"status" gorm:"size:16;index"`
	ResultCode        *int              `json:"resultCode"`
	ResultDesc        string            `json:"resultDesc"`

	// Set only when the transaction completes.
	MpesaReceiptNumber string `json:"mpesaReceiptNumber" gorm:"size:32"`
	TransactionDate    string `json:"transactionDate" gorm:"size:16"`

	RawRequest  datatypes.JSON `json:"rawRequest,omitempty"`
	RawResponse datatypes.JSON `json:"rawResponse,omitempty"`
	RawCallback datatypes.JSON `json:"rawCallback,omitempty"`
}

// CallbackLog is an append-only record of every result delivery for a
// checkout request, callbacks and status queries alike. Late and duplicate
// deliveries land here even though they no longer change the transaction.
type CallbackLog struct {
	gorm.Model
	CheckoutRequestID string         `json:"checkoutRequestId" gorm:"size:64;index"`
	Source            string         `json:"source" gorm:"size:16"`
	Payload           datatypes.JSON `json:"payload"`
}
