package routes

import (
	"route_registry/internal/controllers"

	"github.com/gin-gonic/gin"
)

func ImportRoutes(r *gin.Engine) {
	imports := r.Group("/import")
	{
		imports.POST("/routes", controllers.ImportRoutes)
		imports.GET("/history", controllers.ImportHistory)
		imports.GET("/stats", controllers.ImportStats)
		imports.GET("/operations/:id", controllers.ImportOperationDetail)
	}
}
