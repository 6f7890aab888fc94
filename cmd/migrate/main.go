package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"gocausal/adapters/postgres"
)

func main() {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		url = os.Args[1]
	}
	if url == "" {
		log.Fatal("usage: migrate [database-url] (or set DATABASE_URL)")
	}

	db, err := postgres.Connect(url)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("runs schema applied")
}
