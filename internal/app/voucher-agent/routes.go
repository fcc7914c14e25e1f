// Package voucheragent собирает зависимости сервиса ваучеров и его HTTP-маршруты.
package voucheragent

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/hotel-vouchers/internal/http/handlers/health"
	"github.com/magabrotheeeer/hotel-vouchers/internal/http/handlers/vouchers/list"
	"github.com/magabrotheeeer/hotel-vouchers/internal/http/handlers/vouchers/reveal"
	"github.com/magabrotheeeer/hotel-vouchers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hotel-vouchers/internal/services/voucher"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, agent *voucher.Agent, revealLimiter *middlewarectx.ClientLimiter, metrics http.Handler) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/vouchers", func(r chi.Router) {
		r.Get("/", list.New(logger, agent).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, revealLimiter))
			r.Post("/{id}/reveal", reveal.New(logger, agent).ServeHTTP)
		})
	})

	r.Get("/health", health.New(agent).ServeHTTP)
	r.Handle("/metrics", metrics)
}
