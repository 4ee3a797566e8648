package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Kamau/dawamart-api/mpesa"
	"github.com/Kamau/dawamart-api/payments"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidPaymentBody  = "Invalid request body"
	msgPaymentInitiated    = "STK push sent. Authorize the payment on your phone."
	msgOrderNotFound       = "Order not found"
	msgTransactionNotFound = "Transaction not found"
	msgGatewayUnavailable  = "Payment gateway unavailable, try again shortly"
)

func InitiatePayment(ctx *gin.Context) {
	var body struct {
		OrderID int    `json:"orderId" binding:"required"`
		Phone   string `json:"phone" binding:"required"`
		Amount  int    `json:"amount" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		logrus.Println("Bind error:", err)
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidPaymentBody)
		return
	}

	checkoutRequestID, err := payments.Initiate(ctx.Request.Context(), body.OrderID, body.Phone, body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrOrderNotFound):
			sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		case errors.Is(err, mpesa.ErrInvalidPhone),
			errors.Is(err, payments.ErrAmountOutOfRange),
			errors.Is(err, payments.ErrWrongPaymentMethod),
			errors.Is(err, payments.ErrAlreadyPaid):
			sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, payments.ErrGatewayRejected):
			sendErrorResponse(ctx, http.StatusBadGateway, err.Error())
		default:
			logrus.Println("Payment initiation error:", err)
			sendErrorResponse(ctx, http.StatusServiceUnavailable, msgGatewayUnavailable)
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message":           msgPaymentInitiated,
		"checkoutRequestId": checkoutRequestID,
	})
}

// GetPaymentStatus returns the best-known transaction state, actively
// reconciling with the gateway while the stored row is still pending so
// clients never see a stale "pending forever" answer.
func GetPaymentStatus(ctx *gin.Context) {
	checkoutRequestID := ctx.Param("checkoutRequestId")

	txn, err := payments.QueryAndApply(ctx.Request.Context(), checkoutRequestID)
	if err != nil {
		if errors.Is(err, payments.ErrTransactionNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgTransactionNotFound)
			return
		}
		logrus.Println("Payment status error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to check payment status")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"checkoutRequestId":  txn.CheckoutRequestID,
		"status":             txn.Status,
		"resultDesc":         txn.ResultDesc,
		"mpesaReceiptNumber": txn.MpesaReceiptNumber,
		"amount":             txn.Amount,
	})
}

// HandleMpesaCallback processes the gateway's asynchronous result. The
// gateway retries anything that does not look like its fixed success ack,
// so every path out of here returns the same 200 body regardless of what
// processing did.
func HandleMpesaCallback(ctx *gin.Context) {
	ack := gin.H{"ResultCode": 0, "ResultDesc": "Accepted"}

	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		logrus.Println("Failed to read callback body:", err)
		ctx.JSON(http.StatusOK, ack)
		return
	}

	var envelope mpesa.CallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logrus.Println("Malformed callback payload:", err)
		ctx.JSON(http.StatusOK, ack)
		return
	}

	result, ok := envelope.Result()
	if !ok {
		// Partial delivery with no result code: log and ack, never apply.
		logrus.WithField("checkoutRequestId", result.CheckoutRequestID).
			Println("Callback without result code ignored")
		ctx.JSON(http.StatusOK, ack)
		return
	}
	if result.CheckoutRequestID == "" {
		logrus.Println("Callback without checkout request ID ignored")
		ctx.JSON(http.StatusOK, ack)
		return
	}

	if _, err := payments.ApplyResult(result, body, payments.SourceCallback); err != nil {
		// Includes callbacks for unknown checkout request IDs; the
		// gateway still gets its acknowledgment.
		logrus.WithField("checkoutRequestId", result.CheckoutRequestID).
			Println("Callback processing error:", err)
	}

	ctx.JSON(http.StatusOK, ack)
}

func CompleteOrder(ctx *gin.Context) {
	var body struct {
		OrderID int `json:"orderId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidPaymentBody)
		return
	}

	order, err := payments.Finalize(ctx.Request.Context(), body.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrOrderNotFound):
			sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		case errors.Is(err, payments.ErrPaymentNotCompleted):
			sendErrorResponse(ctx, http.StatusConflict, err.Error())
		default:
			logrus.Println("Order finalization error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to complete order")
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Order confirmed.",
		"order":   order,
	})
}
