// Command token mints an API token for the scheduler's /api routes.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	config "github.com/maheshrc27/cascade-scheduler/configs"
	"github.com/maheshrc27/cascade-scheduler/pkg/utils"
)

func main() {
	userID := flag.String("user", "", "user id to embed in the token")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is required")
	}
	if *userID == "" {
		log.Fatal("-user is required")
	}

	token, err := utils.GenerateToken(cfg.SecretKey, *userID, *ttl)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
