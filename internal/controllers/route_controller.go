package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"route_registry/internal/config"
	"route_registry/internal/services"
)

// CreateRoute creates a route from a full draft, resolving shared
// coordinates and endpoint locations against the value store.
func CreateRoute(c *gin.Context) {
	var draft services.RouteDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := services.CreateRoute(config.DB, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route": route})
}

// GetRoute returns a single route with its sub-objects.
func GetRoute(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	route, err := services.GetRoute(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}

// UpdateRoute applies a full draft to an existing route.
func UpdateRoute(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var draft services.RouteDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		logrus.WithError(err).Warn("UpdateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := services.UpdateRoute(config.DB, id, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}

// DeleteRoute removes a route. Shared sub-objects this route owns need a
// rebind target, passed per relation as query parameters.
func DeleteRoute(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	plan := services.RebindPlan{
		CoordinatesTargetRouteID:  optionalIDQuery(c, "coordinatesTargetRouteId"),
		FromLocationTargetRouteID: optionalIDQuery(c, "fromLocationTargetRouteId"),
		ToLocationTargetRouteID:   optionalIDQuery(c, "toLocationTargetRouteId"),
	}

	if err := services.DeleteRoute(config.DB, id, plan); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}

// CheckDependencies returns the usage counts and rebind candidates a caller
// needs to build a delete request for a shared-object-owning route.
func CheckDependencies(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	report, err := services.CheckDependencies(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListRoutes lists routes with a name filter and sorting, paginated either
// by cursor (cursor/nav parameters) or by page number.
func ListRoutes(c *gin.Context) {
	filter := c.Query("filter")
	sortBy := c.DefaultQuery("sort", "id")
	direction := c.DefaultQuery("direction", "asc")

	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size parameter"})
		return
	}

	cursor := c.Query("cursor")
	nav := c.Query("nav")
	if cursor != "" || nav != "" || c.Query("mode") == "cursor" {
		page, err := services.PageRoutes(config.DB, filter, sortBy, direction, cursor, size, nav)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
		return
	}

	pageNum, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}
	routes, total, err := services.ListPaged(config.DB, filter, sortBy, direction, pageNum, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes, "total_count": total, "page": pageNum, "size": size})
}

func parseID(c *gin.Context) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return 0, false
	}
	return uint(raw), true
}

func optionalIDQuery(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	id := uint(parsed)
	return &id
}
