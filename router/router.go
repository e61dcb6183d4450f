package router

import (
	"net/http"

	_ "go-auth-api/docs"
	"go-auth-api/handler"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter mounts the session API. Routes under auth require a valid
// access token.
func NewRouter(sessionHandler *handler.SessionHandler, parser handler.TokenParser) http.Handler {
	mux := http.NewServeMux()
	auth := handler.AuthMiddleware(parser)

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /sessions", handler.ErrorHandlingMiddleware(sessionHandler.Create))
	mux.Handle("POST /refresh", handler.ErrorHandlingMiddleware(sessionHandler.Refresh))
	mux.Handle("GET /me", auth(handler.ErrorHandlingMiddleware(sessionHandler.Me)))
	mux.Handle("POST /logout", auth(handler.ErrorHandlingMiddleware(sessionHandler.Logout)))

	return mux
}
