package rabbitmq

// RoutingKeyVouchersUpdated ключ маршрутизации события об окончании цикла сбора.
const RoutingKeyVouchersUpdated = "vouchers.updated"

// QueueConfig очередь и ключ, с которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetVoucherQueues очереди, которые объявляет агент при старте.
func GetVoucherQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "vouchers.updated", RoutingKey: RoutingKeyVouchersUpdated},
	}
}
