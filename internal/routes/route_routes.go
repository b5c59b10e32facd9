package routes

import (
	"route_registry/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RouteRoutes(r *gin.Engine) {
	route := r.Group("/routes")
	{
		route.POST("", controllers.CreateRoute)
		route.GET("", controllers.ListRoutes)
		route.GET("/:id", controllers.GetRoute)
		route.PUT("/:id", controllers.UpdateRoute)
		route.DELETE("/:id", controllers.DeleteRoute)
		route.GET("/:id/dependencies", controllers.CheckDependencies)
	}
}
