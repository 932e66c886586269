package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "cerebrin"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanTicketDecisions — канал для трансляции решений ревьюера (HITL).
	// Финальный канал конкретного тикета: cerebrin:tickets:decision:{ticketID}
	RedisChanTicketDecisions = RedisNamespace + ":tickets:decision"

	// RedisChanWorkspaceUpdate — сигнал изменения autonomy-профиля воркспейса;
	// инстансы шлюза инвалидируют свой L1 кэш профилей.
	RedisChanWorkspaceUpdate = RedisNamespace + ":workspaces:profile-update"
)

// TicketDecisionChannel — генератор имени канала для конкретного тикета.
// На него подписан агентский рантайм, ожидающий вердикта без поллинга.
func TicketDecisionChannel(ticketID string) string {
	return fmt.Sprintf("%s:%s", RedisChanTicketDecisions, ticketID)
}
