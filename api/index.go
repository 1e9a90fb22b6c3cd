package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/arnavshah/kitchen-planner-go/pkg/app"
	"github.com/arnavshah/kitchen-planner-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var r http.Handler

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("could not start: %v", err)
	}
	r = a.Router
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
