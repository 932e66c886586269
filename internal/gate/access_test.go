package gate

import (
	"testing"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAccessGateCanResolve(t *testing.T) {
	var g AccessGate

	testCases := []struct {
		role    domain.Role
		wantErr bool
	}{
		{domain.RoleOwner, false},
		{domain.RolePM, false},
		{domain.RoleExecutor, true},
		{domain.RoleViewer, true},
		{"intern", true},
	}

	for _, tc := range testCases {
		p := domain.Perspective{UserID: "u1", WorkspaceID: "ws-1", Role: tc.role}
		err := g.CanResolve(p, "ws-1")
		if tc.wantErr {
			assert.ErrorIs(t, err, domain.ErrUnauthorized, "role %s", tc.role)
		} else {
			assert.NoError(t, err, "role %s", tc.role)
		}
	}
}

func TestAccessGateWorkspaceMismatch(t *testing.T) {
	var g AccessGate
	p := domain.Perspective{UserID: "u1", WorkspaceID: "ws-1", Role: domain.RoleOwner}

	// Перспектива чужого воркспейса не дает прав, даже владельцу
	assert.ErrorIs(t, g.CanResolve(p, "ws-2"), domain.ErrUnauthorized)
	assert.ErrorIs(t, g.CanView(p, "ws-2"), domain.ErrUnauthorized)
}

func TestAccessGateCanView(t *testing.T) {
	var g AccessGate

	// Видимость очереди шире права решать
	for _, role := range []domain.Role{domain.RoleOwner, domain.RolePM, domain.RoleExecutor, domain.RoleViewer} {
		p := domain.Perspective{UserID: "u1", WorkspaceID: "ws-1", Role: role}
		assert.NoError(t, g.CanView(p, "ws-1"), "role %s", role)
	}

	p := domain.Perspective{UserID: "u1", WorkspaceID: "ws-1", Role: "guest"}
	assert.ErrorIs(t, g.CanView(p, "ws-1"), domain.ErrUnauthorized)
}
