package api

import (
	"net/http"
	"time"

	"github.com/JavaNood/record-log/internal/config"
	"github.com/JavaNood/record-log/internal/service"
	"github.com/JavaNood/record-log/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, codec *session.Codec, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	frontendHandler := NewFrontendHandler(services, codec, cfg, log)
	adminHandler := NewAdminHandler(services, codec, cfg, log)

	// Health check
	router.GET("/health", healthCheck)

	// Public API
	v1 := router.Group("/v1")
	{
		v1.GET("/articles", frontendHandler.ListArticles)
		v1.GET("/articles/:id", frontendHandler.GetArticle)
		v1.POST("/verify_article", frontendHandler.VerifyArticle)
		v1.GET("/articles/:id/comments", frontendHandler.ListComments)
		v1.POST("/articles/:id/comments", frontendHandler.SubmitComment)
		v1.POST("/articles/:id/like", frontendHandler.LikeArticle)
		v1.POST("/articles/:id/unlike", frontendHandler.UnlikeArticle)
		v1.GET("/tags", frontendHandler.ListTags)
	}

	// Admin console API
	admin := router.Group("/admin")
	{
		admin.POST("/login", adminHandler.Login)
		admin.POST("/logout", adminHandler.Logout)

		authed := admin.Group("", adminHandler.RequireAuth())
		{
			authed.GET("/dashboard", adminHandler.Dashboard)
			authed.GET("/articles", adminHandler.ListArticles)
			authed.POST("/articles", adminHandler.CreateArticle)
			authed.GET("/articles/:id", adminHandler.GetArticle)
			authed.PUT("/articles/:id", adminHandler.UpdateArticle)
			authed.DELETE("/articles/:id", adminHandler.DeleteArticle)
			authed.GET("/comments", adminHandler.ListComments)
			authed.POST("/comments/batch", adminHandler.BatchModerate)
			authed.POST("/comments/:id/moderate", adminHandler.ModerateComment)
			authed.POST("/comments/:id/reply", adminHandler.ReplyComment)
			authed.GET("/config/:key", adminHandler.GetConfig)
			authed.PUT("/config/:key", adminHandler.SetConfig)
			authed.POST("/tags", adminHandler.CreateTag)
			authed.DELETE("/tags/:id", adminHandler.DeleteTag)
			authed.POST("/upload-image", adminHandler.UploadImage)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "record-log",
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
