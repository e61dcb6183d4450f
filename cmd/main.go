// cmd/main.go
package main

import (
	"go-auth-api/app"
)

// @title           Go-Auth API
// @version         1.0
// @description     Session API issuing short-lived access tokens and rotating refresh tokens.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:3333
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
