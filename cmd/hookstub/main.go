package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hostelmess/internal/config"
	"hostelmess/internal/hookstub"
)

// hookstub stands in for the remote workflow webhook during development.
// Storage is in-memory unless HOOKSTUB_BACKEND=postgres.
func main() {
	cfg := config.Load()

	port := os.Getenv("HOOKSTUB_PORT")
	if port == "" {
		port = "8090"
	}

	var store hookstub.MealStore
	if os.Getenv("HOOKSTUB_BACKEND") == "postgres" {
		pg, err := hookstub.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logrus.Fatalf("postgres connect failed: %v", err)
		}
		defer pg.Close()
		store = pg
		logrus.Info("hookstub using postgres storage")
	} else {
		store = hookstub.NewMemory()
		logrus.Info("hookstub using in-memory storage")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	hookstub.NewHandler(store).Register(r)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logrus.Infof("starting hookstub on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logrus.Info("hookstub exited")
}
