package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Dawamart API. Enjoy seamless interaction with this API.

The following are the endpoints for this API:

AUTH
- POST "/auth/signup" - Create user account
- POST "/auth/login" - Access user account

PRODUCT
- POST "/product" - Create new product (admin)
- GET "/product" - Get all products
- GET "/product/:productId" - Get product by ID

CART
- GET "/cart/:userId" - Get a user's cart
- POST "/cart/items" - Add an item to the cart
- DELETE "/cart/items/:itemId" - Remove an item from the cart

ORDER
- POST "/order" - Create a new order from the cart
- GET "/order/:orderId" - Get order by ID
- GET "/user/:userId/orders" - Get orders for a specific user
- PATCH "/order/:orderId" - Update order status (admin)
- DELETE "/order/:orderId" - Delete a pre-payment order

PAYMENT
- POST "/payment/initiate" - Send an STK push for an order
- GET "/payment/status/:checkoutRequestId" - Check payment status
- POST "/payment/complete" - Finalize a paid order
- POST "/payment/callback" - M-Pesa result callback (gateway only)`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
