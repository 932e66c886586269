package gate

import (
	"testing"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
)

// Полная матрица режим x уровень: таблица в одном месте, как и сама политика.
func TestResolveMatrix(t *testing.T) {
	testCases := []struct {
		mode  domain.AutonomyMode
		level domain.RequiredLevel
		want  Resolution
	}{
		// observer не авто-одобряет ничего
		{domain.ModeObserver, domain.LevelNone, ResolutionRequireApproval},
		{domain.ModeObserver, domain.LevelHumanReview, ResolutionRequireApproval},
		{domain.ModeObserver, domain.LevelMandatoryApproval, ResolutionRequireApproval},

		// operator — только NONE
		{domain.ModeOperator, domain.LevelNone, ResolutionAllow},
		{domain.ModeOperator, domain.LevelHumanReview, ResolutionRequireApproval},
		{domain.ModeOperator, domain.LevelMandatoryApproval, ResolutionRequireApproval},

		// executor — NONE и HUMAN_REVIEW, но жесткий потолок держится
		{domain.ModeExecutor, domain.LevelNone, ResolutionAllow},
		{domain.ModeExecutor, domain.LevelHumanReview, ResolutionAllow},
		{domain.ModeExecutor, domain.LevelMandatoryApproval, ResolutionRequireApproval},
	}

	for _, tc := range testCases {
		got := Resolve(tc.mode, tc.level)
		assert.Equal(t, tc.want, got, "mode=%s level=%s", tc.mode, tc.level)
	}
}

func TestResolveUnknownModeFailsClosed(t *testing.T) {
	assert.Equal(t, ResolutionRequireApproval, Resolve("autopilot", domain.LevelNone))
}
