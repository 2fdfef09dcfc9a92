package middleware

import (
	"net/http"

	"github.com/Aidensmirk/online-learning-platform/internal/config"
	"github.com/go-chi/cors"
)

// NewCORS нужен только для /health и /ready из чужих дашбордов; страницы работают с того же origin.
func NewCORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		return nil
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
