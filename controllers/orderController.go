package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Kamau/dawamart-api/initializers"
	"github.com/Kamau/dawamart-api/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateOrder snapshots the customer's cart into a PENDING order. The
// snapshot lives in ItemsPayload until payment is confirmed and the order
// is finalized; line items are not materialized here.
func CreateOrder(ctx *gin.Context) {
	var orderInfo struct {
		UserID           int                  `json:"userId" binding:"required"`
		FirstName        string               `json:"firstName" binding:"required"`
		LastName         string               `json:"lastName" binding:"required"`
		Email            string               `json:"email" binding:"required,email"`
		Phone            string               `json:"phone" binding:"required"`
		DeliveryLocation string               `json:"deliveryLocation" binding:"required"`
		PaymentMethod    models.PaymentMethod `json:"paymentMethod" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&orderInfo); err != nil {
		logrus.Println("JSON binding error:", err)
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
		return
	}
	if orderInfo.PaymentMethod != models.PaymentMethodCash && orderInfo.PaymentMethod != models.PaymentMethodMobileMoney {
		sendErrorResponse(ctx, http.StatusBadRequest, "Unknown payment method")
		return
	}

	var cart models.Cart
	err := initializers.DB.Preload("Items").Where("user_id = ?", orderInfo.UserID).First(&cart).Error
	if err != nil || len(cart.Items) == 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, "Cart is empty")
		return
	}

	var total float64
	snapshots := make([]models.OrderItemSnapshot, 0, len(cart.Items))
	for _, item := range cart.Items {
		snapshots = append(snapshots, models.OrderItemSnapshot{
			ProductId: item.ProductId,
			Name:      item.ProductName,
			Price:     item.ProductPrice,
			Quantity:  item.ProductQuantity,
		})
		total += item.ProductPrice * float64(item.ProductQuantity)
	}
	payload, err := json.Marshal(snapshots)
	if err != nil {
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to snapshot cart")
		return
	}

	order := models.Order{
		UserID:           orderInfo.UserID,
		FirstName:        orderInfo.FirstName,
		LastName:         orderInfo.LastName,
		Email:            orderInfo.Email,
		Phone:            orderInfo.Phone,
		DeliveryLocation: orderInfo.DeliveryLocation,
		Total:            total,
		Status:           models.OrderPending,
		PaymentStatus:    models.PaymentUnpaid,
		PaymentMethod:    orderInfo.PaymentMethod,
		ItemsPayload:     payload,
	}
	if err := initializers.DB.Create(&order).Error; err != nil {
		logrus.Println("Order create error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create order")
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"message": "Order created. Proceed to payment.",
		"orderId": order.ID,
		"total":   order.Total,
	})
}

func GetOrderByCustomerId(ctx *gin.Context) {
	userId, err := strconv.Atoi(ctx.Param("userId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse userId")
		return
	}

	sortOrder := ctx.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	var orders []models.Order
	result := initializers.DB.Preload("OrderItems").
		Where("user_id = ?", userId).
		Order("created_at " + sortOrder).
		Find(&orders)
	if result.Error != nil {
		logrus.Println(result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch orders.")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders})
}

func GetOrderById(ctx *gin.Context) {
	orderId, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	var order models.Order
	result := initializers.DB.Preload("OrderItems").First(&order, orderId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		} else {
			logrus.Println(result.Error)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch order.")
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func UpdateOrderStatus(ctx *gin.Context) {
	var orderStatusData struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&orderStatusData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	if !models.ValidOrderStatus(orderStatusData.Status) {
		sendErrorResponse(ctx, http.StatusBadRequest, "Unknown order status")
		return
	}

	orderId, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	result := initializers.DB.Model(&models.Order{}).
		Where("id = ?", orderId).
		Update("status", orderStatusData.Status)
	if result.Error != nil {
		logrus.Println(result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update order status")
		return
	}
	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order status updated successfully."})
}

// DeleteOrder removes a transient pre-payment order. Once a push attempt
// has been acknowledged by the gateway the order carries audit state and
// can no longer be deleted.
func DeleteOrder(ctx *gin.Context) {
	orderId, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse order id.")
		return
	}

	result := initializers.DB.
		Where("id = ? AND status = ? AND checkout_request_id = ''", orderId, models.OrderPending).
		Delete(&models.Order{})
	if result.Error != nil {
		logrus.Println(result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete order.")
		return
	}
	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusConflict, "Order has a payment attempt and cannot be deleted.")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order deleted successfully."})
}
