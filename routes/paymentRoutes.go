package routes

import (
	"github.com/Kamau/dawamart-api/controllers"
	"github.com/Kamau/dawamart-api/middlewares"
	"github.com/gin-gonic/gin"
)

func PaymentRoutes(server *gin.Engine) {
	payment := server.Group("/payment")
	{
		payment.POST("/initiate", middlewares.RequireAuth(), controllers.InitiatePayment)
		payment.GET("/status/:checkoutRequestId", middlewares.RequireAuth(), controllers.GetPaymentStatus)
		payment.POST("/complete", middlewares.RequireAuth(), controllers.CompleteOrder)

		// The gateway authenticates by origin, not by our JWTs.
		payment.POST("/callback", controllers.HandleMpesaCallback)
	}
}
