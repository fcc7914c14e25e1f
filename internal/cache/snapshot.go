package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
)

// SnapshotKey ключ, под которым хранится список ваучеров.
const SnapshotKey = "vouchers:snapshot"

// VoucherSnapshot сохраняет и восстанавливает список ваучеров агента.
type VoucherSnapshot struct {
	cache *Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewVoucherSnapshot создает VoucherSnapshot; ttl ограничивает жизнь снимка.
func NewVoucherSnapshot(c *Cache, ttl time.Duration, log *slog.Logger) *VoucherSnapshot {
	return &VoucherSnapshot{cache: c, ttl: ttl, log: log}
}

// Load возвращает сохранённые ваучеры; пустой список, если снимка нет.
func (s *VoucherSnapshot) Load(ctx context.Context) ([]models.Voucher, error) {
	const op = "cache.VoucherSnapshot.Load"
	var vouchers []models.Voucher
	if _, err := s.cache.Get(ctx, SnapshotKey, &vouchers); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vouchers, nil
}

// Save перезаписывает снимок. Подходит как подписчик агента.
func (s *VoucherSnapshot) Save(ctx context.Context, vouchers []models.Voucher) {
	if err := s.cache.Set(ctx, SnapshotKey, vouchers, s.ttl); err != nil {
		s.log.Error("failed to save vouchers snapshot", sl.Err(err))
		return
	}
	s.log.Debug("vouchers snapshot saved", slog.Int("count", len(vouchers)))
}
