package main

import (
	"log"

	"github.com/MrSnakeDoc/jobscout/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("❌ jobscout failed: %v", err)
	}
}
