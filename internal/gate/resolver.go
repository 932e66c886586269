package gate

import "github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"

// Resolution — вердикт Policy Resolver. DENY здесь нет намеренно:
// категоричный отказ — это продуктовое правило поверх (Access Gate),
// а не свойство autonomy-режима.
type Resolution string

const (
	ResolutionAllow           Resolution = "ALLOW"
	ResolutionRequireApproval Resolution = "REQUIRE_APPROVAL"
)

// maxAutoLevel — потолок риска, который режим может авто-одобрить.
// observer в таблице отсутствует: он не авто-одобряет ничего.
var maxAutoLevel = map[domain.AutonomyMode]domain.RequiredLevel{
	domain.ModeOperator: domain.LevelNone,
	domain.ModeExecutor: domain.LevelHumanReview,
}

// Resolve сравнивает требуемый уровень с настройкой автономии воркспейса.
//
// Жесткий потолок: MANDATORY_APPROVAL не авто-одобряется НИКАКИМ режимом.
// Если продуктовая политика изменится, это единственное место правки.
func Resolve(mode domain.AutonomyMode, level domain.RequiredLevel) Resolution {
	if level >= domain.LevelMandatoryApproval {
		return ResolutionRequireApproval
	}

	ceiling, ok := maxAutoLevel[mode]
	if !ok {
		// observer и любой неизвестный режим — все в очередь (fail-closed)
		return ResolutionRequireApproval
	}
	if level <= ceiling {
		return ResolutionAllow
	}
	return ResolutionRequireApproval
}
