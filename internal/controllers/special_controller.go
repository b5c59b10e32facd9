package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"route_registry/internal/config"
	"route_registry/internal/services"
)

// MaxNameRoute returns the route whose name sorts last lexicographically.
func MaxNameRoute(c *gin.Context) {
	route, err := services.MaxNameRoute(config.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	if route == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No routes exist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}

// CountRatingBelow counts the routes with a rating strictly below the
// threshold query parameter.
func CountRatingBelow(c *gin.Context) {
	raw := c.Query("threshold")
	threshold, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid threshold parameter"})
		return
	}
	count, err := services.CountRatingBelow(config.DB, threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// RoutesRatingAbove lists routes with a rating strictly above the threshold,
// best rated first.
func RoutesRatingAbove(c *gin.Context) {
	raw := c.Query("threshold")
	threshold, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid threshold parameter"})
		return
	}
	routes, err := services.RoutesRatingAbove(config.DB, threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// RoutesBetweenLocations lists routes connecting two endpoint descriptors.
// A descriptor is either a literal "(x, y)" pair or a location name.
func RoutesBetweenLocations(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both from and to parameters are required"})
		return
	}
	sortBy := c.DefaultQuery("sort", "name")

	routes, err := services.RoutesBetweenLocations(config.DB, from, to, sortBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// ListCoordinates lists every shared coordinates object in the store.
func ListCoordinates(c *gin.Context) {
	coordinates, err := services.AllCoordinates(config.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coordinates": coordinates})
}

// ListLocations lists every shared location object in the store.
func ListLocations(c *gin.Context) {
	locations, err := services.AllLocations(config.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// ListLocationNames lists the distinct non-null location names.
func ListLocationNames(c *gin.Context) {
	names, err := services.DistinctLocationNames(config.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"names": names})
}
