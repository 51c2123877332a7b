package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local ops console
	"http://localhost:5173",
}

// CORS returns middleware that applies the API's allowed origin policy.
// Webhook deliveries are server-to-server and unaffected; this exists for
// browser-based dashboards hitting the query endpoints.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: defaultCORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}).Handler
}
