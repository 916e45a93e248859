package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resta-pos/api/internal/config"
	"github.com/resta-pos/api/internal/events"
	"github.com/resta-pos/api/internal/router"
	"github.com/resta-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("connect broker: %v", err)
		}
		defer amqpPub.Close()
		pub = amqpPub
		log.Println("Order event publishing enabled")
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, pool, hub, pub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
