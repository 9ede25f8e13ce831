package main

import (
	"log"

	"ImmichDrop/config"
	"ImmichDrop/internal/repo"
	"ImmichDrop/internal/service"
	"ImmichDrop/router"
)

func main() {
	config.InitConfig()
	repo.InitSqlite()
	repo.InitRedis()

	service.Remote = service.NewImmichClient()
	service.DefaultFetcher = service.NewHTTPFetcher()

	r := router.InitRouter()
	log.Printf("[main] listening on %s, forwarding to %s",
		config.AppConfig.ListenAddr, config.AppConfig.NormalizedBaseURL())
	if err := r.Run(config.AppConfig.ListenAddr); err != nil {
		log.Fatalf("[main] server exited: %v", err)
	}
}
