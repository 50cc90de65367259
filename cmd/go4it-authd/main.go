package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	session "github.com/go4itsports/go-session"
	"github.com/go4itsports/go-session/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	addr := envOr("GO4IT_HTTP_ADDR", ":8080")
	dbPath := envOr("GO4IT_DB_PATH", "go4it.db")
	signingKey := os.Getenv("GO4IT_SIGNING_KEY")
	if signingKey == "" {
		log.Println("GO4IT_SIGNING_KEY not set, using an insecure dev key")
		signingKey = "insecure-dev-key"
	}

	db, err := server.OpenSQLite(dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	store := server.NewUserStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.CreateSchema(ctx); err != nil {
		cancel()
		log.Fatalf("create schema: %v", err)
	}
	cancel()

	srv := server.New(store, server.Config{
		SigningKey: signingKey,
		Debug:      os.Getenv("GO4IT_DEBUG") != "",
		Logger:     session.DefaultLogger(),
	})

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Println("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("go4it auth service listening on %s", addr)
	if err := srv.Listen(addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
