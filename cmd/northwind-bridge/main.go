package main

import (
	"fmt"
	"log"
	"net/http"

	"northwind-chat/internal/analytics"
	"northwind-chat/internal/chat"
	"northwind-chat/internal/config"
	"northwind-chat/internal/server"
	"northwind-chat/internal/store"
	"northwind-chat/internal/viz"
)

func main() {
	cfg := config.Load()
	prof, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		log.Fatalf("failed to load render profile %s: %v", cfg.ProfilePath, err)
	}

	svc := analytics.NewService(cfg, prof)
	conv := store.NewMemoryStore()
	coord := chat.NewCoordinator(svc, conv, chat.WithApology(prof.Apology))

	var upstream server.Pinger
	if p, ok := svc.(server.Pinger); ok {
		upstream = p
	}
	s := server.NewServer(cfg, coord, conv, viz.NewDispatcher(prof.RenderOptions()), upstream)
	defer s.Close()

	addr := ":" + cfg.Port
	fmt.Printf("northwind bridge listening on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, s.Router()))
}
