package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Kebolder/e6aibot/internal/config"
	"github.com/Kebolder/e6aibot/internal/dmail"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(poller *dmail.Poller, posts *PostAdmin, admin config.AdminConfig, logger *zap.Logger) *Router {
	r := gin.Default()

	// Public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/admin/login", func(c *gin.Context) {
		var req struct {
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		if admin.PasswordHash == "" || !CheckAdminPassword(req.Password, admin.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
			return
		}

		token, err := GenerateToken(admin.JWTSecret)
		if err != nil {
			logger.Error("Failed to issue admin token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	// Protected
	auth := r.Group("/admin")
	auth.Use(AuthMiddleware(admin.JWTSecret))
	{
		auth.POST("/poll", func(c *gin.Context) {
			go poller.Tick(context.Background())
			c.JSON(http.StatusAccepted, gin.H{"status": "poll triggered"})
		})
		auth.GET("/processed", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"processed_ids": poller.ProcessedIDs()})
		})
		auth.GET("/posts/:id", posts.View)
		auth.POST("/posts/:id/replace", posts.Replace)
		auth.POST("/posts/:id/undelete", posts.Undelete)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
