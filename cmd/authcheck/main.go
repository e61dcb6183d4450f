// cmd/authcheck/main.go
package main

import (
	"go-auth-api/app"
	"go-auth-api/logger"
)

// authcheck signs in against the API with the client configuration and
// keeps the session until it is signed out, locally or by another session.
func main() {
	if err := app.RunCheck(); err != nil {
		logger.Log.WithError(err).Fatal("Auth check failed")
	}
}
