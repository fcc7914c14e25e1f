// Package voucher содержит агента, который периодически собирает промокоды
// с сайтов-партнёров, хранит их до истечения срока и раскрывает код только
// пользователю, прошедшему проверку.
package voucher

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
)

// Интервалы по умолчанию: сбор раз в 4 часа, данные старше 4 часов устаревшие.
// Синхронный сбор из GetVouchers ограничен DefaultRefreshTimeout.
const (
	DefaultInterval       = 4 * time.Hour
	DefaultStaleness      = 4 * time.Hour
	DefaultRefreshTimeout = 2 * time.Minute
)

var (
	// ErrVoucherNotFound ваучера с таким ID нет (или он уже истёк).
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrAuthenticationRequired пользователь не прошёл проверку.
	ErrAuthenticationRequired = errors.New("user authentication required")
	// ErrSourceFetchFailed не удалось получить страницу партнёра.
	ErrSourceFetchFailed = errors.New("source fetch failed")
	// ErrCollectionCycleFailed цикл сбора прерван, хранилище не изменено.
	ErrCollectionCycleFailed = errors.New("collection cycle failed")
	// ErrCycleInFlight цикл уже выполняется, повторный запуск пропущен.
	ErrCycleInFlight = errors.New("collection cycle already running")
)

// Fetcher получает тело страницы по URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor извлекает кандидатов в ваучеры из страницы источника.
// Неполные записи просто пропускаются, ошибок Extractor не возвращает.
type Extractor interface {
	Extract(source string, page []byte) []models.Voucher
}

// Authenticator проверяет пользователя по его идентификатору.
// Любая ошибка трактуется агентом как отказ.
type Authenticator interface {
	Authenticate(ctx context.Context, userID string) (bool, error)
}

// Listener получает полный список ваучеров после каждого успешного цикла.
// Вызовы одного Listener не пересекаются, и более старый список
// не доставляется после более нового.
type Listener func(ctx context.Context, vouchers []models.Voucher)

type subscriber struct {
	fn        Listener
	mu        sync.Mutex
	delivered uint64
}

// Metrics принимает события агента для экспорта метрик.
type Metrics interface {
	CycleFinished(result string)
	SourceFailed(source string)
	VouchersStored(n int)
	Revealed(outcome string)
}

// Settings параметры расписания и список источников.
type Settings struct {
	Sources        []string
	Interval       time.Duration
	Staleness      time.Duration
	RefreshTimeout time.Duration
	SkipInitialRun bool
}

// Option настраивает Agent при создании.
type Option func(*Agent)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// WithMetrics подключает экспорт метрик.
func WithMetrics(m Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// Agent владеет хранилищем ваучеров и управляет циклом сбора.
type Agent struct {
	fetcher   Fetcher
	extractor Extractor
	auth      Authenticator
	metrics   Metrics
	log       *slog.Logger
	now       func() time.Time

	sources        []string
	interval       time.Duration
	staleness      time.Duration
	refreshTimeout time.Duration
	skipInitialRun bool

	mu         sync.RWMutex
	vouchers   map[string]models.Voucher
	lastRun    time.Time
	generation uint64

	running atomic.Bool

	lmu         sync.RWMutex
	subscribers []*subscriber
}

// New создает новый экземпляр Agent. Расписание не запускается,
// для этого служит RunPeriodicCollection.
func New(settings Settings, fetcher Fetcher, extractor Extractor, auth Authenticator, log *slog.Logger, opts ...Option) *Agent {
	a := &Agent{
		fetcher:        fetcher,
		extractor:      extractor,
		auth:           auth,
		metrics:        nopMetrics{},
		log:            log,
		now:            time.Now,
		sources:        slices.Clone(settings.Sources),
		interval:       cmp.Or(settings.Interval, DefaultInterval),
		staleness:      cmp.Or(settings.Staleness, DefaultStaleness),
		refreshTimeout: cmp.Or(settings.RefreshTimeout, DefaultRefreshTimeout),
		skipInitialRun: settings.SkipInitialRun,
		vouchers:       make(map[string]models.Voucher),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.lastRun = a.now()
	return a
}

// Subscribe регистрирует получателя события об обновлении ваучеров.
func (a *Agent) Subscribe(l Listener) {
	a.lmu.Lock()
	defer a.lmu.Unlock()
	a.subscribers = append(a.subscribers, &subscriber{fn: l})
}

// GetVouchers возвращает актуальные ваучеры без кодов скрытых записей.
// При forceRefresh или устаревших данных сначала синхронно выполняет цикл сбора.
// Цикл общий для всех вызывающих, поэтому отмена ctx его не прерывает,
// он ограничен только refreshTimeout.
// Ошибка цикла не возвращается: вызывающий получает то, что уже есть в хранилище.
func (a *Agent) GetVouchers(ctx context.Context, forceRefresh bool) []models.Voucher {
	const op = "voucher.GetVouchers"

	if forceRefresh || a.stale() {
		cycleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.refreshTimeout)
		err := a.Collect(cycleCtx)
		cancel()
		switch {
		case errors.Is(err, ErrCycleInFlight):
			a.log.Info("collection already in flight, serving current vouchers", slog.String("op", op))
		case err != nil:
			a.log.Warn("serving stale vouchers", slog.String("op", op), sl.Err(err))
		}
	}

	now := a.now()
	a.mu.RLock()
	res := make([]models.Voucher, 0, len(a.vouchers))
	for _, v := range a.vouchers {
		if v.Expired(now) {
			continue
		}
		res = append(res, v.Public())
	}
	a.mu.RUnlock()

	sortVouchers(res)
	return res
}

// RevealVoucher возвращает код ваучера, если пользователь прошёл проверку.
// Отсутствие ваучера проверяется до проверки пользователя.
func (a *Agent) RevealVoucher(ctx context.Context, voucherID, userID string) (string, error) {
	const op = "voucher.RevealVoucher"
	log := a.log.With(slog.String("op", op), slog.String("voucher_id", voucherID))

	a.mu.RLock()
	v, ok := a.vouchers[voucherID]
	a.mu.RUnlock()
	if !ok || v.Expired(a.now()) {
		a.metrics.Revealed("not_found")
		return "", fmt.Errorf("%s: %w", op, ErrVoucherNotFound)
	}

	if !a.authenticate(ctx, log, userID) {
		a.metrics.Revealed("unauthorized")
		return "", fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
	}

	a.metrics.Revealed("revealed")
	log.Info("voucher code revealed")
	return v.Code, nil
}

func (a *Agent) authenticate(ctx context.Context, log *slog.Logger, userID string) bool {
	if userID == "" {
		return false
	}
	ok, err := a.auth.Authenticate(ctx, userID)
	if err != nil {
		log.Warn("authentication check failed, denying", sl.Err(err))
		return false
	}
	return ok
}

// LastRun время завершения последнего успешного цикла сбора
// (до первого цикла время создания агента).
func (a *Agent) LastRun() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastRun
}

// Len количество записей в хранилище, включая ещё не удалённые истёкшие.
func (a *Agent) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.vouchers)
}

// Restore заполняет хранилище ранее сохранёнными ваучерами по тем же
// правилам, что и цикл сбора: существующие записи не перезаписываются.
func (a *Agent) Restore(vouchers []models.Voucher) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	added := merge(a.vouchers, vouchers)
	purgeExpired(a.vouchers, a.now())
	a.metrics.VouchersStored(len(a.vouchers))
	return added
}

func (a *Agent) stale() bool {
	return a.now().Sub(a.LastRun()) > a.staleness
}

func sortVouchers(vs []models.Voucher) {
	slices.SortFunc(vs, func(x, y models.Voucher) int {
		if c := x.ExpiryDate.Compare(y.ExpiryDate); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
}

type nopMetrics struct{}

func (nopMetrics) CycleFinished(string) {}
func (nopMetrics) SourceFailed(string)  {}
func (nopMetrics) VouchersStored(int)   {}
func (nopMetrics) Revealed(string)      {}
