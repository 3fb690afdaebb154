package main

import (
	"fmt"
	"os"

	"fitquote/internal/catalog"
	"fitquote/internal/config"
	"fitquote/internal/logging"
	"fitquote/internal/rules"
	"fitquote/internal/server"
	"fitquote/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Initialize(cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	catalogue, err := catalog.NewService(db)
	must(err)
	defer catalogue.Flush()

	rulesService, err := rules.NewService(db)
	must(err)

	srv := server.New(db, catalogue, rulesService)
	must(srv.ListenAndServe(cfg.ListenAddr))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
