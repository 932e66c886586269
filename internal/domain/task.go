package domain

import "encoding/json"

// TaskType — классификация задачи, объявленная самим агентским рантаймом.
// Шлюз не вычисляет риск заново, он потребляет готовую классификацию.
type TaskType string

const (
	TaskRoutine   TaskType = "ROUTINE"
	TaskStrategic TaskType = "STRATEGIC"
	TaskHighRisk  TaskType = "HIGH_RISK"
)

// Action — фиксированный набор действий, которые агент может запросить.
type Action string

const (
	ActionCreateTask      Action = "CREATE_TASK"
	ActionUpdateStrategy  Action = "UPDATE_STRATEGY"
	ActionExecuteWorkflow Action = "EXECUTE_WORKFLOW"
	ActionSendOutreach    Action = "SEND_OUTREACH"
	ActionPublishContent  Action = "PUBLISH_CONTENT"
	ActionModifyPipeline  Action = "MODIFY_PIPELINE"
	ActionAdjustBudget    Action = "ADJUST_BUDGET"
	ActionDeleteRecord    Action = "DELETE_RECORD" // Необратимое удаление
)

// knownActions — реестр валидных действий. Все, что не здесь — ValidationError.
var knownActions = map[Action]struct{}{
	ActionCreateTask:      {},
	ActionUpdateStrategy:  {},
	ActionExecuteWorkflow: {},
	ActionSendOutreach:    {},
	ActionPublishContent:  {},
	ActionModifyPipeline:  {},
	ActionAdjustBudget:    {},
	ActionDeleteRecord:    {},
}

// KnownAction проверяет принадлежность к реестру.
func KnownAction(a Action) bool {
	_, ok := knownActions[a]
	return ok
}

// KnownTaskType проверяет объявленный тип задачи.
func KnownTaskType(t TaskType) bool {
	switch t {
	case TaskRoutine, TaskStrategic, TaskHighRisk:
		return true
	}
	return false
}

// TaskRequest — транзиентный запрос на исполнение. Не персистится:
// живет ровно до решения шлюза, дальше либо исполняется, либо
// превращается в HITLTicket.
type TaskRequest struct {
	WorkspaceID      string          `json:"workspace_id"`
	AgentID          string          `json:"agent_id"`
	AgentType        string          `json:"agent_type"`
	TaskType         TaskType        `json:"task_type"`
	Action           Action          `json:"action"`
	EstimatedCostUSD float64         `json:"estimated_cost_usd"`
	Prompt           string          `json:"prompt"`
	Context          json.RawMessage `json:"context,omitempty"`
}

// Validate отбрасывает мусор до любых изменений состояния.
func (r *TaskRequest) Validate() error {
	if r.WorkspaceID == "" {
		return &ValidationError{Field: "workspace_id", Reason: "required"}
	}
	if r.AgentID == "" {
		return &ValidationError{Field: "agent_id", Reason: "required"}
	}
	if !KnownTaskType(r.TaskType) {
		return &ValidationError{Field: "task_type", Reason: "unknown value " + string(r.TaskType)}
	}
	if !KnownAction(r.Action) {
		return &ValidationError{Field: "action", Reason: "unknown value " + string(r.Action)}
	}
	if r.EstimatedCostUSD < 0 {
		return &ValidationError{Field: "estimated_cost_usd", Reason: "must be non-negative"}
	}
	return nil
}
