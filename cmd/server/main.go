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

	"bandhan/config"
	"bandhan/internal/database"
	"bandhan/internal/router"
	"bandhan/internal/service"
	"bandhan/pkg/cloudinary"
	"bandhan/pkg/exotel"
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
	database.SeedAdmin(db)

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}
	gateway := exotel.NewClient(cfg.Exotel.SID, cfg.Exotel.APIKey, cfg.Exotel.APIToken,
		cfg.Exotel.Subdomain, cfg.Exotel.VirtualNumber, cfg.Exotel.AppURL)
	if !gateway.Configured() {
		log.Printf("[EXOTEL] gateway not configured, call initiation disabled")
	}

	engine, callSvc := router.Setup(cfg, db, router.Deps{Cloud: cloud, Gateway: gateway})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeper := service.NewSweeper(&cfg.Sweeper, callSvc)
	go sweeper.Run(sweepCtx)

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
	stopSweeper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}
