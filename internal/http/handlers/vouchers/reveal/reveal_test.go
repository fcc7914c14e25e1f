package reveal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/hotel-vouchers/internal/services/voucher"
)

// MockService реализует интерфейс reveal.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) RevealVoucher(ctx context.Context, voucherID, userID string) (string, error) {
	args := m.Called(ctx, voucherID, userID)
	return args.String(0), args.Error(1)
}

func TestRevealHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		id             string
		body           string
		header         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное раскрытие",
			id:   "v1",
			body: `{"userId":"u-1"}`,
			setupMock: func(m *MockService) {
				m.On("RevealVoucher", mock.Anything, "v1", "u-1").Return("LIS10", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"code":"LIS10"}`,
		},
		{
			name: "ваучер не найден",
			id:   "missing",
			body: `{"userId":"u-1"}`,
			setupMock: func(m *MockService) {
				m.On("RevealVoucher", mock.Anything, "missing", "u-1").
					Return("", fmt.Errorf("voucher.RevealVoucher: %w", voucher.ErrVoucherNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"voucher not found"}`,
		},
		{
			name: "пользователь не прошёл проверку",
			id:   "v1",
			body: `{"userId":"u-2"}`,
			setupMock: func(m *MockService) {
				m.On("RevealVoucher", mock.Anything, "v1", "u-2").
					Return("", fmt.Errorf("voucher.RevealVoucher: %w", voucher.ErrAuthenticationRequired))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"authentication required"}`,
		},
		{
			name: "пустое тело передаёт пустого пользователя",
			id:   "v1",
			setupMock: func(m *MockService) {
				m.On("RevealVoucher", mock.Anything, "v1", "").
					Return("", voucher.ErrAuthenticationRequired)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"authentication required"}`,
		},
		{
			name:   "пользователь из заголовка Authorization",
			id:     "v1",
			body:   `{}`,
			header: "Bearer session-token",
			setupMock: func(m *MockService) {
				m.On("RevealVoucher", mock.Anything, "v1", "session-token").Return("LIS10", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"code":"LIS10"}`,
		},
		{
			name:           "некорректный JSON",
			id:             "v1",
			body:           `{"userId":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:           "слишком длинный userId",
			id:             "v1",
			body:           `{"userId":"` + strings.Repeat("x", 2049) + `"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field UserID is too long"}`,
		},
		{
			name: "неожиданная ошибка",
			id:   "v1",
			body: `{"userId":"u-1"}`,
			setupMock: func(m *MockService) {
				m.On("RevealVoucher", mock.Anything, "v1", "u-1").Return("", assert.AnError)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not reveal voucher"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/vouchers/"+tt.id+"/reveal", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Bearer  tok ")
	assert.Equal(t, "tok", bearerToken(req))
}
