package main

import (
	"log"

	"github.com/Wal-20/studysphere-cli/internal/config"
	"github.com/Wal-20/studysphere-cli/internal/tui"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := tui.Run(cfg); err != nil {
		log.Fatal(err)
	}
}
