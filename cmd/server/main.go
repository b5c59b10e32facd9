package main

import (
	"log"
	"net/http"
	"os"

	"route_registry/internal/config"
	"route_registry/internal/logger"
	"route_registry/internal/middleware"
	"route_registry/internal/routes"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database and run migrations
	config.InitDB()

	// Setup Gin router with recovery, request logging and identity resolution
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := "0.0.0.0:" + getPort()
	log.Println("🚀 Server running at " + addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}
