package voucher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
)

// RunPeriodicCollection запускает цикл сбора сразу (если не отключено)
// и затем по таймеру, пока не отменён ctx.
func (a *Agent) RunPeriodicCollection(ctx context.Context) {
	if !a.skipInitialRun {
		a.runScheduled(ctx)
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("voucher collection schedule stopped")
			return
		case <-ticker.C:
			a.runScheduled(ctx)
		}
	}
}

func (a *Agent) runScheduled(ctx context.Context) {
	a.log.Info("starting scheduled voucher collection")
	err := a.Collect(ctx)
	switch {
	case errors.Is(err, ErrCycleInFlight):
		a.log.Info("previous collection still running, skipping tick")
	case err != nil:
		a.log.Error("scheduled voucher collection failed", sl.Err(err))
	}
}

// Collect выполняет один цикл сбора: загрузка источников, извлечение,
// слияние, удаление истёкших и оповещение подписчиков.
// Если цикл уже идёт, возвращает ErrCycleInFlight и ничего не делает.
func (a *Agent) Collect(ctx context.Context) (err error) {
	const op = "voucher.Collect"

	if !a.running.CompareAndSwap(false, true) {
		return ErrCycleInFlight
	}
	log := a.log.With(slog.String("op", op))
	started := a.now()

	defer func() {
		if err == nil {
			a.mu.Lock()
			a.lastRun = a.now()
			a.mu.Unlock()
		}
		a.running.Store(false)
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", op, ErrCollectionCycleFailed, r)
		}
		if err != nil {
			a.metrics.CycleFinished("failed")
			log.Error("voucher collection failed, keeping previous vouchers", sl.Err(err))
		}
	}()

	candidates := a.fetchAll(ctx, log)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrCollectionCycleFailed, ctxErr)
	}

	current, generation, added, purged := a.commit(candidates)
	a.metrics.CycleFinished("success")
	a.metrics.VouchersStored(len(current))
	log.Info("voucher collection finished",
		slog.Int("candidates", len(candidates)),
		slog.Int("added", added),
		slog.Int("purged", purged),
		slog.Int("total", len(current)),
		slog.Duration("took", a.now().Sub(started)),
	)

	a.notify(ctx, current, generation)
	return nil
}

// commit применяет слияние и очистку к копии хранилища и подменяет его целиком.
// generation растёт с каждым применённым циклом.
func (a *Agent) commit(candidates []models.Voucher) (current []models.Voucher, generation uint64, added, purged int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	staged := maps.Clone(a.vouchers)
	added = merge(staged, candidates)
	purged = purgeExpired(staged, a.now())
	a.vouchers = staged
	a.generation++

	current = slices.Collect(maps.Values(staged))
	sortVouchers(current)
	return current, a.generation, added, purged
}

// fetchAll последовательно обходит источники. Ошибка одного источника
// не прерывает цикл.
func (a *Agent) fetchAll(ctx context.Context, log *slog.Logger) []models.Voucher {
	var candidates []models.Voucher
	for _, source := range a.sources {
		if ctx.Err() != nil {
			break
		}
		page, err := a.fetcher.Fetch(ctx, source)
		if err != nil {
			a.metrics.SourceFailed(source)
			log.Warn("skipping source",
				slog.String("source", source),
				sl.Err(fmt.Errorf("%w: %w", ErrSourceFetchFailed, err)))
			continue
		}
		found := a.extractor.Extract(source, page)
		log.Debug("source scraped", slog.String("source", source), slog.Int("found", len(found)))
		for _, v := range found {
			if v.Code == "" {
				continue
			}
			if v.ID == "" {
				v.ID = candidateID(source, v.Code)
			}
			candidates = append(candidates, v)
		}
	}
	return candidates
}

// notify доставляет список каждому подписчику в отдельной горутине.
// Подписчик, уже получивший более новое поколение, старое пропускает.
func (a *Agent) notify(ctx context.Context, vouchers []models.Voucher, generation uint64) {
	a.lmu.RLock()
	subscribers := slices.Clone(a.subscribers)
	a.lmu.RUnlock()

	ctx = context.WithoutCancel(ctx)
	for _, s := range subscribers {
		go a.deliver(ctx, s, slices.Clone(vouchers), generation)
	}
}

func (a *Agent) deliver(ctx context.Context, s *subscriber, vouchers []models.Voucher, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation <= s.delivered {
		a.log.Debug("skipping outdated vouchers notification", slog.Uint64("generation", generation))
		return
	}
	s.delivered = generation

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("vouchers listener panicked", slog.Any("panic", r))
		}
	}()
	s.fn(ctx, vouchers)
}

// merge добавляет только новые ID; новые записи всегда скрыты.
func merge(dst map[string]models.Voucher, candidates []models.Voucher) int {
	added := 0
	for _, v := range candidates {
		if _, ok := dst[v.ID]; ok {
			continue
		}
		v.IsHidden = true
		dst[v.ID] = v
		added++
	}
	return added
}

func purgeExpired(vouchers map[string]models.Voucher, now time.Time) int {
	purged := 0
	for id, v := range vouchers {
		if v.Expired(now) {
			delete(vouchers, id)
			purged++
		}
	}
	return purged
}

func candidateID(source, code string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"|"+code)).String()
}
