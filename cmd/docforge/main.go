package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Log to stderr; stdout carries the progress display.
	log.SetOutput(os.Stderr)

	// A missing .env is not an error; real env vars still apply.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
