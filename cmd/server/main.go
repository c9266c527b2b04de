package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subly/config"
	"subly/internal/database"
	"subly/internal/router"
	"subly/pkg/processor"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedOperator(db, &cfg.Operator)

	var proc processor.Processor
	if cfg.Processor.BaseURL != "" {
		proc = processor.NewRestProcessor(cfg.Processor.BaseURL, cfg.Processor.TokenURL, cfg.Processor.ClientID, cfg.Processor.ClientSecret)
	} else {
		log.Printf("[Processor] no PROCESSOR_BASE_URL set, using in-memory stub")
		proc = processor.NewStubProcessor()
	}

	engine := router.Setup(cfg, db, proc)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
