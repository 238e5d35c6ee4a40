package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oolongworks/teausage/internal/api/handlers"
	"github.com/oolongworks/teausage/internal/api/middleware"
	"github.com/oolongworks/teausage/internal/service"
)

// NewRouter wires the summary API. usageService may not be nil.
func NewRouter(usageService *service.UsageService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	usageHandler := handlers.NewUsageHandler(usageService)
	usageGroup := router.Group("/api/v1/usage")
	{
		usageGroup.GET("/daily", usageHandler.GetDailySummary)
		usageGroup.GET("/weekday", usageHandler.GetWeekdaySummary)
		usageGroup.GET("/monthly_bags", usageHandler.GetBagUsage)
		usageGroup.GET("/report", usageHandler.GetRunReport)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
	if allowAll {
		cfg.AllowOrigins = nil
		cfg.AllowOriginFunc = func(origin string) bool { return true }
	} else if len(normalized) > 0 {
		cfg.AllowOrigins = normalized
	}
	return cfg
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
