package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"enroute-service/internal/infrastructure/oauth"
	"enroute-service/pkg/logger"

	"github.com/joho/godotenv"
)

// Prints an OpenSky access token for checking client credentials.
func main() {
	godotenv.Load()

	clientID := flag.String("client-id", os.Getenv("OPENSKY_CLIENT_ID"), "OpenSky client id")
	clientSecret := flag.String("client-secret", os.Getenv("OPENSKY_CLIENT_SECRET"), "OpenSky client secret")
	tokenURL := flag.String("token-url", os.Getenv("OPENSKY_TOKEN_URL"), "OAuth token endpoint")
	flag.Parse()

	openSkyOAuth := oauth.NewOpenSkyOAuth(*clientID, *clientSecret, *tokenURL, logger.NewLogger("warn"))
	if !openSkyOAuth.Configured() {
		log.Fatal("OPENSKY_CLIENT_ID and OPENSKY_CLIENT_SECRET are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := openSkyOAuth.Token(ctx)
	if err != nil {
		log.Fatalf("Failed to get token: %v", err)
	}

	out, err := openSkyOAuth.TokenToJSON(token)
	if err != nil {
		log.Fatalf("Failed to encode token: %v", err)
	}
	fmt.Println(out)
}
