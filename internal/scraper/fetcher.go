// Package scraper реализует загрузку страниц сайтов-партнёров и извлечение
// из них карточек ваучеров.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/hotel-vouchers/internal/config"
)

// ErrUnexpectedStatus партнёр ответил не 2xx.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// HTTPFetcher загружает страницы с ограничением частоты и таймаутом на запрос.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	maxBody   int64
}

// NewHTTPFetcher создает HTTPFetcher по настройкам коллектора.
func NewHTTPFetcher(cfg config.Collector) *HTTPFetcher {
	limit := rate.Inf
	if cfg.FetchRPS > 0 {
		limit = rate.Limit(cfg.FetchRPS)
	}
	return &HTTPFetcher{
		client:    &http.Client{},
		limiter:   rate.NewLimiter(limit, 1),
		timeout:   cfg.FetchTimeout,
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
	}
}

// Fetch возвращает тело страницы. Тело обрезается до maxBody байт.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	const op = "scraper.Fetch"

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrUnexpectedStatus, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.maxBody > 0 {
		body = io.LimitReader(resp.Body, f.maxBody)
	}
	page, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}
