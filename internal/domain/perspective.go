package domain

// Role — роль пользователя в перспективе воркспейса.
type Role string

const (
	RoleOwner    Role = "owner"
	RolePM       Role = "pm"
	RoleExecutor Role = "executor"
	RoleViewer   Role = "viewer"
)

// CanApproveHITL — capability на approve/reject тикетов.
// Не зависит от содержимого конкретного тикета.
func (r Role) CanApproveHITL() bool {
	return r == RoleOwner || r == RolePM
}

// CanViewQueue — более широкое правило видимости: может ли роль
// вообще смотреть очередь воркспейса и оставлять комментарии.
func (r Role) CanViewQueue() bool {
	switch r {
	case RoleOwner, RolePM, RoleExecutor, RoleViewer:
		return true
	}
	return false
}

// Perspective — профиль вызывающего в рамках одного воркспейса.
// Чистые данные без собственного состояния: Access Gate только читает их.
type Perspective struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        Role   `json:"role"`
}
