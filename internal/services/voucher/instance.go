package voucher

import (
	"context"
	"sync"
)

var (
	instanceOnce sync.Once
	instance     *Agent
)

// GetInstance возвращает общий для процесса экземпляр агента. При первом
// вызове создаёт его через build и запускает периодический сбор в фоне
// до отмены ctx. Последующие вызовы build не выполняют.
func GetInstance(ctx context.Context, build func() *Agent) *Agent {
	instanceOnce.Do(func() {
		instance = build()
		go instance.RunPeriodicCollection(ctx)
	})
	return instance
}
