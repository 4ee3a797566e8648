package routes

import (
	"github.com/Kamau/dawamart-api/controllers"
	"github.com/Kamau/dawamart-api/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine) {
	server.POST("/order", middlewares.RequireAuth(), controllers.CreateOrder)
	server.GET("/order/:orderId", middlewares.RequireAuth(), controllers.GetOrderById)
	server.GET("/user/:userId/orders", middlewares.RequireAuth(), controllers.GetOrderByCustomerId)
	server.PATCH("/order/:orderId", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.UpdateOrderStatus)
	server.DELETE("/order/:orderId", middlewares.RequireAuth(), controllers.DeleteOrder)
}
