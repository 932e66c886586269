package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketCanTransitionTo(t *testing.T) {
	testCases := []struct {
		name    string
		current TicketStatus
		next    TicketStatus
		wantErr error
	}{
		{"pending to approved", StatusPending, StatusApproved, nil},
		{"pending to rejected", StatusPending, StatusRejected, nil},
		{"pending to expired", StatusPending, StatusExpired, nil},
		{"pending to pending", StatusPending, StatusPending, ErrInvalidTransition},
		{"approved is terminal", StatusApproved, StatusRejected, ErrAlreadyResolved},
		{"rejected is terminal", StatusRejected, StatusApproved, ErrAlreadyResolved},
		{"expired is terminal", StatusExpired, StatusApproved, ErrAlreadyResolved},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ticket := &HITLTicket{Status: tc.current}
			err := ticket.CanTransitionTo(tc.next)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestPriorityForLevel(t *testing.T) {
	assert.Equal(t, PriorityCritical, PriorityForLevel(LevelMandatoryApproval))
	assert.Equal(t, PriorityHigh, PriorityForLevel(LevelHumanReview))
	assert.Equal(t, PriorityMedium, PriorityForLevel(LevelNone))
}

func TestBudgetLedger(t *testing.T) {
	l := BudgetLedger{LimitUSD: 100, SpentUSD: 95}

	assert.InDelta(t, 5, l.RemainingUSD(), 0.001)
	assert.True(t, l.CanAfford(5))
	assert.False(t, l.CanAfford(5.01))
	assert.True(t, l.CanAfford(0))
}

func TestTaskRequestValidate(t *testing.T) {
	valid := TaskRequest{
		WorkspaceID:      "ws-1",
		AgentID:          "agent-1",
		TaskType:         TaskRoutine,
		Action:           ActionCreateTask,
		EstimatedCostUSD: 1,
	}
	assert.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(r *TaskRequest)
		field  string
	}{
		{"missing workspace", func(r *TaskRequest) { r.WorkspaceID = "" }, "workspace_id"},
		{"missing agent", func(r *TaskRequest) { r.AgentID = "" }, "agent_id"},
		{"unknown task type", func(r *TaskRequest) { r.TaskType = "URGENT" }, "task_type"},
		{"unknown action", func(r *TaskRequest) { r.Action = "LAUNCH_ROCKET" }, "action"},
		{"negative cost", func(r *TaskRequest) { r.EstimatedCostUSD = -1 }, "estimated_cost_usd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := req.Validate()

			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestRequiredLevelJSON(t *testing.T) {
	data, err := LevelMandatoryApproval.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"MANDATORY_APPROVAL"`, string(data))

	parsed, err := ParseRequiredLevel("HUMAN_REVIEW")
	assert.NoError(t, err)
	assert.Equal(t, LevelHumanReview, parsed)

	_, err = ParseRequiredLevel("EXTREME")
	assert.Error(t, err)
}
