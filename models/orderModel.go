package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderConfirmed, OrderCancelled, OrderShipped, OrderDelivered:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "CASH"
	PaymentMethodMobileMoney PaymentMethod = "MOBILE_MONEY"
)

type Order struct {
	gorm.Model
	UserID           int           `json:"userId"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	Email            string        `json:"email"`
	Phone            string        `json:"phone"`
	DeliveryLocation string        `json:"deliveryLocation"`
	Total            float64       `json:"total"`
	Status           OrderStatus   `json:"status" gorm:"size:16"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" gorm:"size:16"`
	PaymentMethod    PaymentMethod `json:"paymentMethod" gorm:"size:16"`

	// OrderNumber is assigned once, at finalization. An empty value marks
	// an order that has not been materialized yet.
	OrderNumber string `json:"orderNumber" gorm:"size:16;index"`

	// CheckoutRequestID correlates the order to its in-flight push-payment
	// attempt. Empty until a push has been accepted by the gateway.
	CheckoutRequestID string `json:"checkoutRequestId" gorm:"size:64;index"`

	// ItemsPayload is the serialized cart snapshot taken at order creation.
	// It is decoded into OrderItems and cleared when the order is finalized.
	ItemsPayload datatypes.JSON `json:"itemsPayload,omitempty"`

	OrderItems []OrderItem `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	gorm.Model
	OrderID   int     `json:"orderId"`
	ProductId int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderItemSnapshot is the shape of one entry in Order.ItemsPayload.
type OrderItemSnapshot struct {
	ProductId int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}
