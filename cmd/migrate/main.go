package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dosada05/pickup-hoops/db"
)

func main() {
	down := flag.Int("down", 0, "roll back N migrations instead of applying")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	conn, err := db.Connect(mustDatabaseURL(), db.DefaultPoolConfig(), 5*time.Second)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close()

	if *down > 0 {
		if err := db.MigrateDown(conn, *down); err != nil {
			log.Fatal(err)
		}
		log.Printf("rolled back %d migration(s)", *down)
	} else {
		if err := db.MigrateUp(conn); err != nil {
			log.Fatal(err)
		}
		log.Println("database migrations applied")
	}

	version, dirty, err := db.MigrationVersion(conn)
	if err != nil {
		log.Fatalf("failed to read schema version: %v", err)
	}
	log.Printf("schema version %d (dirty=%t)", version, dirty)
}

func mustDatabaseURL() string {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	return dsn
}
