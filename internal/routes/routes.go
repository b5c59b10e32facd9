package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"route_registry/internal/middleware"
)

func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())
	r.Use(middleware.Identity())

	RouteRoutes(r)
	SpecialRoutes(r)
	ImportRoutes(r)

	return r
}
