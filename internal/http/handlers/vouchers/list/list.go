// Package list реализует HTTP-обработчик списка актуальных ваучеров.
//
// Коды скрытых ваучеров в ответ не попадают. Параметр refresh=true
// запускает сбор перед ответом.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
)

// Handler обрабатывает запросы на получение списка ваучеров.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс агента, отдающего ваучеры.
type Service interface {
	GetVouchers(ctx context.Context, forceRefresh bool) []models.Voucher
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP отдаёт JSON-массив ваучеров.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.vouchers.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// любое значение, кроме "true", означает обычный запрос
	refresh := r.URL.Query().Get("refresh") == "true"

	res := h.service.GetVouchers(r.Context(), refresh)

	log.Info("vouchers listed", slog.Int("count", len(res)), slog.Bool("refresh", refresh))
	render.JSON(w, r, res)
}
