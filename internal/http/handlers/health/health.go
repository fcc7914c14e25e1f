// Package health реализует проверку живости сервиса.
package health

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hotel-vouchers/internal/http/response"
)

// Service сведения о состоянии агента.
type Service interface {
	LastRun() time.Time
	Len() int
}

// Handler отвечает на GET /health.
type Handler struct {
	service Service
}

// New создает новый Handler.
func New(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"last_run": h.service.LastRun().UTC().Format(time.RFC3339),
		"vouchers": h.service.Len(),
	}))
}
