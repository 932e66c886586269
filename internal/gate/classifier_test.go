package gate

import (
	"testing"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierBaseMapping(t *testing.T) {
	c, err := NewClassifier(nil)
	require.NoError(t, err)

	testCases := []struct {
		taskType domain.TaskType
		want     domain.RequiredLevel
	}{
		{domain.TaskRoutine, domain.LevelNone},
		{domain.TaskStrategic, domain.LevelHumanReview},
		{domain.TaskHighRisk, domain.LevelMandatoryApproval},
	}

	for _, tc := range testCases {
		level, err := c.Classify(tc.taskType, domain.ActionCreateTask)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, level, "task type %s", tc.taskType)
	}
}

func TestClassifierRiskFloor(t *testing.T) {
	c, err := NewClassifier(map[string]string{
		"DELETE_RECORD":   "MANDATORY_APPROVAL",
		"PUBLISH_CONTENT": "HUMAN_REVIEW",
	})
	require.NoError(t, err)

	// Пол поднимает рутинное удаление до обязательного подтверждения
	level, err := c.Classify(domain.TaskRoutine, domain.ActionDeleteRecord)
	assert.NoError(t, err)
	assert.Equal(t, domain.LevelMandatoryApproval, level)

	// Но никогда не опускает: HIGH_RISK публикация остается MANDATORY
	level, err = c.Classify(domain.TaskHighRisk, domain.ActionPublishContent)
	assert.NoError(t, err)
	assert.Equal(t, domain.LevelMandatoryApproval, level)

	// Действия вне таблицы живут по базовому маппингу
	level, err = c.Classify(domain.TaskRoutine, domain.ActionCreateTask)
	assert.NoError(t, err)
	assert.Equal(t, domain.LevelNone, level)
}

func TestClassifierValidation(t *testing.T) {
	c, err := NewClassifier(nil)
	require.NoError(t, err)

	var vErr *domain.ValidationError

	_, err = c.Classify("MEGA_RISK", domain.ActionCreateTask)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "task_type", vErr.Field)

	_, err = c.Classify(domain.TaskRoutine, "FORMAT_DISK")
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "action", vErr.Field)
}

func TestNewClassifierRejectsBadTable(t *testing.T) {
	_, err := NewClassifier(map[string]string{"NOT_AN_ACTION": "MANDATORY_APPROVAL"})
	assert.Error(t, err)

	_, err = NewClassifier(map[string]string{"DELETE_RECORD": "SUPER_MANDATORY"})
	assert.Error(t, err)
}
