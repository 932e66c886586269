package gate

import "github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"

// AccessGate — чистая авторизационная проверка поверх перспективы
// воркспейса. Собственного состояния нет: все решения выводятся
// из переданного профиля.
type AccessGate struct{}

// CanResolve решает, вправе ли вызывающий вообще делать approve/reject
// в данном воркспейсе. Независимо от содержимого тикета.
func (AccessGate) CanResolve(p domain.Perspective, workspaceID string) error {
	if p.WorkspaceID != workspaceID {
		return domain.ErrUnauthorized
	}
	if !p.Role.CanApproveHITL() {
		return domain.ErrUnauthorized
	}
	return nil
}

// CanView — правило видимости очереди: просмотр тикетов и комментарии
// доступны более широкому кругу ролей, чем принятие решений.
func (AccessGate) CanView(p domain.Perspective, workspaceID string) error {
	if p.WorkspaceID != workspaceID {
		return domain.ErrUnauthorized
	}
	if !p.Role.CanViewQueue() {
		return domain.ErrUnauthorized
	}
	return nil
}
