package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"hostelmess/internal/auth"
	"hostelmess/internal/chat"
	"hostelmess/internal/config"
	"hostelmess/internal/gateway"
	"hostelmess/internal/httpmiddleware"
	"hostelmess/internal/qr"
	"hostelmess/internal/speech"
	"hostelmess/internal/store"
	"hostelmess/internal/webhook"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stdout)

	if err := runHTTP(cfg); err != nil {
		logrus.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	redisClient := store.NewRedis(cfg.RedisAddr)
	var keys store.ClientKeys = redisClient
	if !redisClient.Healthy(context.Background()) {
		logrus.Warn("redis not reachable, client keys held in memory")
		keys = store.NewMemory()
	}

	chatRelay := webhook.NewChat(cfg.WebhookBaseURL, cfg.WebhookTimeout, cfg.WebhookStub)
	messClient := webhook.NewMess(cfg.WebhookBaseURL, cfg.WorkflowID, cfg.WebhookTimeout, cfg.WebhookStub)
	chatSvc := chat.NewService(chatRelay, cfg.ChatGreeting, cfg.ChatMaxExchanges, cfg.ChatMaxChars)

	handler := gateway.New(chatSvc, messClient, keys, qr.NewDecoder(), speech.Unsupported{})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsCfg))

	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		webhookHealthy := chatSvc.Healthy(c.Request.Context())
		status := http.StatusOK
		if !webhookHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "webhook": webhookHealthy})
	})

	r.POST("/v1/staff/token", func(c *gin.Context) {
		var req struct {
			StaffID string `json:"staff_id" binding:"required"`
			Secret  string `json:"secret" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cfg.StaffSecret == "" || req.Secret != cfg.StaffSecret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid staff secret"})
			return
		}

		token, exp, err := auth.Issue(req.StaffID, "staff", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"access_token": token,
			"expires_at":   exp.Unix(),
		})
	})

	staff := auth.StaffAuth(cfg.StaffAuth, cfg.JWTSigningKey, cfg.JWTIssuer)
	handler.Register(r, staff)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("starting gateway on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Warnf("forced shutdown: %v", err)
	}
	logrus.Info("gateway exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
