package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Kamau/dawamart-api/initializers"
	"github.com/Kamau/dawamart-api/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func findOrCreateCart(userId int) (*models.Cart, error) {
	var cart models.Cart
	err := initializers.DB.Where("user_id = ?", userId).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userId}
		err = initializers.DB.Create(&cart).Error
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func CreateCartItem(ctx *gin.Context) {
	var body struct {
		UserID          int     `json:"userId" binding:"required"`
		ProductId       int     `json:"productId" binding:"required"`
		ProductName     string  `json:"productName" binding:"required"`
		ProductPrice    float64 `json:"productPrice" binding:"required"`
		ProductQuantity int     `json:"productQuantity" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		logrus.Println("Bind error:", err)
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid input")
		return
	}

	cart, err := findOrCreateCart(body.UserID)
	if err != nil {
		logrus.Println("Cart lookup error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to fetch cart")
		return
	}

	var existingCartItem models.CartItem
	err = initializers.DB.
		Where("cart_id = ? AND product_id = ?", cart.ID, body.ProductId).
		First(&existingCartItem).Error

	if err == nil {
		existingCartItem.ProductQuantity += body.ProductQuantity
		if err := initializers.DB.Save(&existingCartItem).Error; err != nil {
			logrus.Println("Update error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to update cart item quantity.")
			return
		}
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"message": "Cart item quantity updated",
			"id":      existingCartItem.ID,
		})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.Println("Database error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to fetch cart item")
		return
	}

	cartItem := models.CartItem{
		CartID:          int(cart.ID),
		ProductId:       body.ProductId,
		ProductName:     body.ProductName,
		ProductPrice:    body.ProductPrice,
		ProductQuantity: body.ProductQuantity,
	}
	if err := initializers.DB.Create(&cartItem).Error; err != nil {
		logrus.Println("Create error:", err)
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to create cart item")
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"message": cartItem.ProductName + " added to cart",
		"id":      cartItem.ID,
	})
}

func GetCart(ctx *gin.Context) {
	userId, err := strconv.Atoi(ctx.Param("userId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse userId")
		return
	}

	var cart models.Cart
	result := initializers.DB.
		Where("user_id = ?", userId).
		Preload("Items").
		First(&cart)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, "Cart not found")
		} else {
			logrus.Println("Database error:", result.Error)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch cart")
		}
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cart})
}

func DeleteCartItem(ctx *gin.Context) {
	itemId, err := strconv.Atoi(ctx.Param("itemId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse itemId")
		return
	}

	result := initializers.DB.Delete(&models.CartItem{}, itemId)
	if result.Error != nil {
		logrus.Println("Delete error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to remove cart item")
		return
	}
	if result.RowsAffected == 0 {
		sendErrorResponse(ctx, http.StatusNotFound, "Cart item not found")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Cart item removed."})
}
