package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/felicity-connect/backend/cmd/app"
)

// @contact.name   Felicity Connect Team
// @contact.email  felicity-no-reply@example.com
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
