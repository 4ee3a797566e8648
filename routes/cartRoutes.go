package routes

import (
	"github.com/Kamau/dawamart-api/controllers"
	"github.com/Kamau/dawamart-api/middlewares"
	"github.com/gin-gonic/gin"
)

func CartRoutes(server *gin.Engine) {
	cart := server.Group("/cart", middlewares.RequireAuth())
	{
		cart.GET("/:userId", controllers.GetCart)
		cart.POST("/items", controllers.CreateCartItem)
		cart.DELETE("/items/:itemId", controllers.DeleteCartItem)
	}
}
