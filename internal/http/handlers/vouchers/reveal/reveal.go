// Package reveal реализует HTTP-обработчик раскрытия кода ваучера.
//
// Идентификатор ваучера берётся из URL, пользователь из тела запроса
// {"userId": "..."} или, если поле пустое, из заголовка Authorization: Bearer.
package reveal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hotel-vouchers/internal/http/response"
	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
	"github.com/magabrotheeeer/hotel-vouchers/internal/services/voucher"
)

// Handler обрабатывает запросы на раскрытие кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс агента, раскрывающего коды.
type Service interface {
	RevealVoucher(ctx context.Context, voucherID, userID string) (string, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP возвращает {"code": ...} либо 404/401 в зависимости от ошибки агента.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.vouchers.reveal"

	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("voucher_id", id),
	)

	var req models.RevealRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Error("invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		log.Error("failed to validate request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = bearerToken(r)
	}

	code, err := h.service.RevealVoucher(r.Context(), id, userID)
	switch {
	case errors.Is(err, voucher.ErrVoucherNotFound):
		log.Info("voucher not found")
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("voucher not found"))
		return
	case errors.Is(err, voucher.ErrAuthenticationRequired):
		log.Info("reveal rejected, authentication required")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	case err != nil:
		log.Error("failed to reveal voucher", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reveal voucher"))
		return
	}

	render.JSON(w, r, models.RevealResponse{Code: code})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
