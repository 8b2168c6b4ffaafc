// Package main provides the eat-what LINE bot server entry point.
package main

import (
	"net/http"

	"github.com/chiahsuan/eatwhat-linebot-go/internal/metrics"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/storage"
	"github.com/chiahsuan/eatwhat-linebot-go/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, webhookHandler *webhook.Handler, db *storage.DB, m *metrics.Metrics, registry *prometheus.Registry) {
	// Root endpoint - redirect to the project page
	rootHandler := func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "https://github.com/chiahsuan/eatwhat-linebot-go")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe - process is running, no dependency checks
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe - database must answer
	readyHandler := func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		shopCount, err := db.CountShops(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}
		m.SetShopCount(shopCount)

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"shops":    shopCount,
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// LINE webhook callback endpoint
	router.POST("/callback", webhookHandler.Handle)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
