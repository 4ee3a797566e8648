package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Kamau/dawamart-api/initializers"
	"github.com/Kamau/dawamart-api/models"
	"github.com/jaevor/go-nanoid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Order numbers use an unambiguous uppercase alphabet (no I, O, 0-lookalike
// confusion at the pharmacy counter).
var newOrderNumber func() string

func init() {
	gen, err := nanoid.CustomASCII("0123456789ABCDEFGHJKLMNPQRSTUVWXYZ", 8)
	if err != nil {
		panic(err)
	}
	newOrderNumber = func() string { return "DWM-" + gen() }
}

// Finalize turns a paid order into a confirmed one: materializes the items
// snapshot into order line items, assigns the order number, clears the
// snapshot and the customer's cart. Safe to invoke twice; the second call
// finds the order already claimed and returns it as is.
//
// For mobile-money orders the linked transaction must be COMPLETED. If it
// is still PENDING one synchronous reconciliation query runs first.
func Finalize(ctx context.Context, orderID int) (*models.Order, error) {
	var order models.Order
	if err := initializers.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	paid := false
	if order.PaymentMethod == models.PaymentMethodMobileMoney {
		if order.CheckoutRequestID == "" {
			return nil, fmt.Errorf("%w: no payment attempt on order %d", ErrPaymentNotCompleted, orderID)
		}
		txn, err := QueryAndApply(ctx, order.CheckoutRequestID)
		if err != nil {
			return nil, err
		}
		if txn.Status != models.TxnCompleted {
			return nil, fmt.Errorf("%w: transaction is %s", ErrPaymentNotCompleted, txn.Status)
		}
		paid = true
	}

	err := initializers.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"order_number": newOrderNumber(),
			"status":       models.OrderConfirmed,
		}
		if paid {
			updates["payment_status"] = models.PaymentPaid
		}

		// The empty order number is the claim: exactly one caller gets
		// RowsAffected 1 and materializes the items.
		claim := tx.Model(&models.Order{}).
			Where("id = ? AND order_number = ''", orderID).
			Updates(updates)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return nil
		}

		var snapshots []models.OrderItemSnapshot
		if len(order.ItemsPayload) > 0 {
			if err := json.Unmarshal(order.ItemsPayload, &snapshots); err != nil {
				return fmt.Errorf("failed to decode items payload: %w", err)
			}
		}
		for _, snap := range snapshots {
			item := models.OrderItem{
				OrderID:   orderID,
				ProductId: snap.ProductId,
				Name:      snap.Name,
				Price:     snap.Price,
				Quantity:  snap.Quantity,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to materialize order item: %w", err)
			}
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).
			Update("items_payload", nil).Error; err != nil {
			return err
		}

		return clearCart(tx, order.UserID)
	})
	if err != nil {
		return nil, err
	}

	var confirmed models.Order
	if err := initializers.DB.Preload("OrderItems").First(&confirmed, orderID).Error; err != nil {
		return nil, err
	}
	logrus.WithField("orderNumber", confirmed.OrderNumber).Printf("Order %d finalized", orderID)
	return &confirmed, nil
}

func clearCart(tx *gorm.DB, userID int) error {
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
}
