package routes

import (
	"route_registry/internal/controllers"

	"github.com/gin-gonic/gin"
)

func SpecialRoutes(r *gin.Engine) {
	special := r.Group("/routes/special")
	{
		special.GET("/max-name", controllers.MaxNameRoute)
		special.GET("/count-rating-below", controllers.CountRatingBelow)
		special.GET("/rating-above", controllers.RoutesRatingAbove)
		special.GET("/between-locations", controllers.RoutesBetweenLocations)
	}

	r.GET("/coordinates", controllers.ListCoordinates)
	r.GET("/locations", controllers.ListLocations)
	r.GET("/locations/names", controllers.ListLocationNames)
}
