package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"

	"harvestly/internal/config"
	"harvestly/internal/database"
	"harvestly/internal/events"
	"harvestly/internal/handlers"
	"harvestly/internal/middleware"
	"harvestly/internal/notifications"
	"harvestly/internal/orders"
	"harvestly/internal/storage"
	"harvestly/internal/storefront"
)

func main() {
	config.Load()
	env := config.AppEnv

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := storage.Open(ctx, storage.Options{
		Driver:        env.StorageDriver,
		SQLitePath:    env.SQLitePath,
		RedisAddr:     env.RedisAddr,
		RedisPassword: env.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Println("[MAIN] [INFO] client storage:", env.StorageDriver)

	var (
		client *mongo.Client
		db     *mongo.Database
		repo   orders.Repository = orders.NewMemoryRepository()
	)
	if env.MongoURI != "" {
		client, err = database.Connect(env.MongoURI)
		if err != nil {
			log.Fatal(err)
		}
		db = client.Database(env.DBName)
		log.Println("MongoDB connected to:", db.Name())

		if err := database.EnsureOrderIndexes(db); err != nil {
			log.Printf("[MAIN] [WARN] order index warning: %v", err)
		}
		repo = orders.NewMongoRepository(db)
	} else {
		log.Println("[MAIN] [WARN] MONGO_URI not set, orders are kept in memory")
	}

	var publisher events.Publisher = events.LogPublisher{}
	var kafka *events.KafkaPublisher
	if len(env.KafkaBrokers) > 0 {
		kafka, err = events.NewKafkaPublisher(env.KafkaBrokers, env.KafkaTopic)
		if err != nil {
			log.Fatal(err)
		}
		publisher = kafka
	}
	feed := notifications.NewFeed()
	publisher = events.Fanout{publisher, feed}

	fee := env.DeliveryFee
	reg := storefront.NewRegistry(storefront.Deps{
		APIBaseURL:  env.APIURL,
		HTTPClient:  &http.Client{Timeout: env.APITimeout},
		Storage:     store,
		Orders:      repo,
		Publisher:   publisher,
		DeliveryFee: &fee,
		IdleTimeout: env.SessionIdleTimeout,
	})
	go reg.Run(ctx, time.Minute)

	limiter := middleware.NewRateLimiter(env.RateLimitPerSecond, env.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(3 * time.Minute)
			}
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.SecurityHeaders(), limiter.Limit())
	handlers.RegisterRoutes(router, handlers.RouterDeps{
		Registry:      reg,
		JWTSecret:     env.JWTSecret,
		Mongo:         db,
		Notifications: feed,
	})

	corsHandler := cors.New(corsOptions(env.CORSOrigins)).Handler(router)

	addr := env.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           corsHandler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		stop()
		if kafka != nil {
			kafka.Close()
		}
		if closer, ok := store.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Println("[MAIN] [ERROR] storage close:", err)
			}
		}
		if client != nil {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Println("[MAIN] [ERROR] mongo disconnect:", err)
			}
		}
	})

	go func() {
		log.Printf("[MAIN] [INFO] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("[MAIN] [INFO] shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("[MAIN] [INFO] server stopped")
}

// corsOptions allows credentials only for an explicit origin list. Without
// one every origin is allowed and credentials are not.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return opts
}
