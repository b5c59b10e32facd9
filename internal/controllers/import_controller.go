package controllers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"route_registry/internal/config"
	"route_registry/internal/middleware"
	"route_registry/internal/services"
)

const maxImportSize = 10 << 20 // 10 MB

// ImportRoutes accepts a CSV batch either as a multipart "file" part or as a
// raw request body, and runs the all-or-nothing import pipeline.
func ImportRoutes(c *gin.Context) {
	username := middleware.Username(c)
	if username == "" {
		username = strings.TrimSpace(c.Query("username"))
	}
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required for import"})
		return
	}

	filename, content, err := readImportPayload(c)
	if err != nil {
		logrus.WithError(err).Warn("ImportRoutes: unreadable payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	op, err := services.ImportRoutes(config.DB, username, filename, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"operation": op})
}

func readImportPayload(c *gin.Context) (string, string, error) {
	if file, header, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
		if err != nil {
			return "", "", err
		}
		return header.Filename, string(data), nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	if err != nil {
		return "", "", err
	}
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		filename = "upload.csv"
	}
	return filename, string(data), nil
}

// ImportHistory lists the caller's import operations, newest first.
func ImportHistory(c *gin.Context) {
	username := middleware.Username(c)
	if username == "" {
		username = strings.TrimSpace(c.Query("username"))
	}
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size parameter"})
		return
	}

	ops, total, err := services.ImportHistory(config.DB, username, page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operations": ops, "total_count": total, "page": page, "size": size})
}

// ImportStats summarizes the caller's import operation counts.
func ImportStats(c *gin.Context) {
	username := middleware.Username(c)
	if username == "" {
		username = strings.TrimSpace(c.Query("username"))
	}
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required"})
		return
	}

	stats, err := services.ImportStatsFor(config.DB, username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ImportOperationDetail returns a single import audit row.
func ImportOperationDetail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	op, err := services.ImportOperationDetail(config.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operation": op})
}
