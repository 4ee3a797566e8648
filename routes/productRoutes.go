package routes

import (
	"github.com/Kamau/dawamart-api/controllers"
	"github.com/Kamau/dawamart-api/middlewares"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine) {
	server.POST("/product", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.CreateProduct)
	server.GET("/product", controllers.GetProducts)
	server.GET("/product/:productId", controllers.GetProductById)
}
