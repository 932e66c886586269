package gate

import (
	"fmt"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
)

// Classifier маппит объявленный тип задачи и действие в требуемый
// уровень подтверждения. Чистая функция без побочных эффектов:
// единственный способ упасть — неизвестный task_type/action (ValidationError).
type Classifier struct {
	// riskFloors — минимальный уровень для отдельных действий.
	// Например, необратимые удаления поднимаются до MANDATORY_APPROVAL
	// независимо от того, что агент объявил о задаче.
	riskFloors map[domain.Action]domain.RequiredLevel
}

// NewClassifier строит классификатор из конфигурационной таблицы
// action -> уровень. Таблица — конфигурация, не код: пороги тюнятся
// без редеплоя логики политики.
func NewClassifier(floors map[string]string) (*Classifier, error) {
	parsed := make(map[domain.Action]domain.RequiredLevel, len(floors))
	for action, level := range floors {
		a := domain.Action(action)
		if !domain.KnownAction(a) {
			return nil, fmt.Errorf("risk floor table: unknown action %q", action)
		}
		l, err := domain.ParseRequiredLevel(level)
		if err != nil {
			return nil, fmt.Errorf("risk floor table: action %q: %w", action, err)
		}
		parsed[a] = l
	}
	return &Classifier{riskFloors: parsed}, nil
}

// Classify возвращает required_level для запроса.
// База: ROUTINE -> NONE, STRATEGIC -> HUMAN_REVIEW, HIGH_RISK -> MANDATORY_APPROVAL.
// Пол по действию может только поднять уровень, но никогда не опустить.
func (c *Classifier) Classify(taskType domain.TaskType, action domain.Action) (domain.RequiredLevel, error) {
	if !domain.KnownAction(action) {
		return domain.LevelNone, &domain.ValidationError{Field: "action", Reason: "unknown value " + string(action)}
	}

	var base domain.RequiredLevel
	switch taskType {
	case domain.TaskRoutine:
		base = domain.LevelNone
	case domain.TaskStrategic:
		base = domain.LevelHumanReview
	case domain.TaskHighRisk:
		base = domain.LevelMandatoryApproval
	default:
		return domain.LevelNone, &domain.ValidationError{Field: "task_type", Reason: "unknown value " + string(taskType)}
	}

	if floor, ok := c.riskFloors[action]; ok && floor > base {
		return floor, nil
	}
	return base, nil
}
