// Command token signs a provider access token for local development against
// JWT_ACCESS_TOKEN_SECRET.
package main

import (
	"WoundMonitor/internal/entity"
	jwtPkg "WoundMonitor/pkg/jwt"
	"WoundMonitor/pkg/log"
	"flag"
	"fmt"
	"github.com/joho/godotenv"
	"time"
)

func main() {
	envErr := godotenv.Load()
	logger := log.NewLogger()
	if envErr != nil {
		logger.Debugf("No .env file loaded: %v", envErr)
	}

	id := flag.String("id", "dev-provider", "provider id claim")
	email := flag.String("email", "provider@localhost", "provider email claim")
	username := flag.String("username", "dev", "provider username claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	token, expiresAt, err := jwtPkg.SignProvider(entity.UserLoginData{
		ID:       *id,
		Email:    *email,
		Username: *username,
	}, *ttl)
	if err != nil {
		logger.Fatalf("Failed to sign token: %v", err)
	}

	logger.WithField("expires_at", expiresAt.Format(time.RFC3339)).Info("Token signed")
	fmt.Println(token)
}
