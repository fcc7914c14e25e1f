package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
)

// Channel часть amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePublisher рассылает событие vouchers.updated после каждого цикла сбора.
type UpdatePublisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
	log      *slog.Logger
	now      func() time.Time
}

// NewUpdatePublisher создает UpdatePublisher.
func NewUpdatePublisher(ch Channel, exchange string, log *slog.Logger) *UpdatePublisher {
	return &UpdatePublisher{
		ch:       ch,
		exchange: exchange,
		log:      log,
		now:      time.Now,
	}
}

// Publish отправляет идентификаторы текущих ваучеров. Коды не публикуются.
// Ошибка только логируется: подписчик агента не может её вернуть.
func (p *UpdatePublisher) Publish(_ context.Context, vouchers []models.Voucher) {
	const op = "rabbitmq.UpdatePublisher.Publish"

	ids := make([]string, 0, len(vouchers))
	for _, v := range vouchers {
		ids = append(ids, v.ID)
	}
	event := models.VouchersUpdated{
		Count: len(vouchers),
		IDs:   ids,
		At:    p.now().UTC(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := PublishMessage(p.ch, p.exchange, RoutingKeyVouchersUpdated, event); err != nil {
		p.log.Error("failed to publish vouchers update", slog.String("op", op), sl.Err(err))
		return
	}
	p.log.Debug("vouchers update published", slog.Int("count", event.Count))
}
