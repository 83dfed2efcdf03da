package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/breadlog/internal/config"
	"github.com/mamadbah2/breadlog/internal/server/handlers"
)

const requestIDHeader = "X-Request-ID"

// New wires the Gin engine with required routes and middlewares.
func New(cfg config.ServerConfig, production *handlers.ProductionHandler, reports *handlers.ReportHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/ledgers", reports.Ledgers)
	day := api.Group("/ledgers/:date")
	day.GET("", production.Get)
	day.PUT("/meta", production.UpdateMeta)
	day.POST("/batches", production.AddBatch)
	day.PATCH("/batches/:seq", production.UpdateBatch)
	day.POST("/reset", production.Reset)
	day.POST("/save", production.Save)
	day.DELETE("", production.Delete)
	day.GET("/export.xlsx", production.ExportXLSX)
	day.GET("/export.txt", production.ExportText)

	api.GET("/history/:date", reports.History)
	api.GET("/trend", reports.Trend)
	api.GET("/holidays", reports.Holidays)
	api.POST("/holidays/:date/toggle", reports.ToggleHoliday)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AddAllowHeaders(requestIDHeader)
	c.AddExposeHeaders("Content-Disposition", requestIDHeader)
	return c
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")))
	}
}
