package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubService struct {
	lastRun time.Time
	n       int
}

func (s stubService) LastRun() time.Time { return s.lastRun }
func (s stubService) Len() int           { return s.n }

func TestHealthHandler(t *testing.T) {
	svc := stubService{lastRun: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC), n: 3}

	rr := httptest.NewRecorder()
	New(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"status":"OK","data":{"last_run":"2026-10-01T08:00:00Z","vouchers":3}}`,
		rr.Body.String())
}
