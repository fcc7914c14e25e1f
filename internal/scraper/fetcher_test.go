package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hotel-vouchers/internal/config"
)

func testCollectorConfig() config.Collector {
	return config.Collector{
		FetchTimeout: time.Second,
		UserAgent:    "hotel-vouchers-test",
		MaxBodyBytes: 1024,
	}
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		cfg       func(*config.Collector)
		wantBody  string
		wantError error
		anyError  bool
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "hotel-vouchers-test", r.Header.Get("User-Agent"))
				_, _ = w.Write([]byte("<html>deals</html>"))
			},
			wantBody: "<html>deals</html>",
		},
		{
			name: "non 2xx status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantError: ErrUnexpectedStatus,
		},
		{
			name: "body is truncated",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("0123456789abcdef"))
			},
			cfg:      func(c *config.Collector) { c.MaxBodyBytes = 10 },
			wantBody: "0123456789",
		},
		{
			name: "timeout",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			cfg:      func(c *config.Collector) { c.FetchTimeout = 50 * time.Millisecond },
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			cfg := testCollectorConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			f := NewHTTPFetcher(cfg)

			body, err := f.Fetch(context.Background(), srv.URL)

			switch {
			case tt.wantError != nil:
				require.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, body)
			case tt.anyError:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestHTTPFetcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher(testCollectorConfig()).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	_, err := NewHTTPFetcher(testCollectorConfig()).Fetch(context.Background(), "://bad")
	assert.Error(t, err)
}
