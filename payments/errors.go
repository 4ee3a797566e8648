package payments

import "errors"

var (
	// Validation failures, rejected before any gateway call.
	ErrAmountOutOfRange   = errors.New("amount outside accepted bounds")
	ErrWrongPaymentMethod = errors.New("order is not payable by mobile money")
	ErrAlreadyPaid        = errors.New("order is already paid")

	// Not-found conditions, distinct from validation so the callback
	// endpoint can still acknowledge the gateway.
	ErrOrderNotFound       = errors.New("order not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// The gateway refused the request and said why.
	ErrGatewayRejected = errors.New("payment request rejected by gateway")

	// Transport failure or open breaker: the outcome is unknown, not
	// failed, and must be reconciled later.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// Finalization precondition not met.
	ErrPaymentNotCompleted = errors.New("payment not completed")
)
