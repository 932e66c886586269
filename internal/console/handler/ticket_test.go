package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGate возвращает заранее заданные ответы; хендлеры тестируем
// изолированно от конвейера.
type stubGate struct {
	submitResult *domain.SubmitResult
	ticket       *domain.HITLTicket
	tickets      []*domain.HITLTicket
	comment      *domain.Comment
	err          error

	lastSubmit   *domain.TaskRequest
	lastCaller   string
	lastTicketID string
	lastReason   string
	lastBody     string
}

func (s *stubGate) Submit(_ context.Context, req *domain.TaskRequest) (*domain.SubmitResult, error) {
	s.lastSubmit = req
	return s.submitResult, s.err
}

func (s *stubGate) List(_ context.Context, callerID string, _ domain.TicketFilter) ([]*domain.HITLTicket, error) {
	s.lastCaller = callerID
	return s.tickets, s.err
}

func (s *stubGate) GetTicket(_ context.Context, callerID, ticketID string) (*domain.HITLTicket, error) {
	s.lastCaller, s.lastTicketID = callerID, ticketID
	return s.ticket, s.err
}

func (s *stubGate) Approve(_ context.Context, ticketID, approverID string) (*domain.HITLTicket, error) {
	s.lastCaller, s.lastTicketID = approverID, ticketID
	return s.ticket, s.err
}

func (s *stubGate) Reject(_ context.Context, ticketID, approverID string, reason string) (*domain.HITLTicket, error) {
	s.lastCaller, s.lastTicketID, s.lastReason = approverID, ticketID, reason
	return s.ticket, s.err
}

func (s *stubGate) AddComment(_ context.Context, ticketID, authorID, body string) (*domain.Comment, error) {
	s.lastCaller, s.lastTicketID, s.lastBody = authorID, ticketID, body
	return s.comment, s.err
}

// testRouter монтирует хендлеры на те же маршруты, что и боевой сервер,
// но авторизацию подменяет прямой подстановкой user ID в контекст.
func testRouter(h *TicketHandler, userID string) http.Handler {
	r := chi.NewRouter()
	if userID != "" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), userID)))
			})
		})
	}
	r.Post("/v1/tasks/submit", h.Submit)
	r.Get("/v1/tickets", h.List)
	r.Get("/v1/tickets/{id}", h.GetDetails)
	r.Post("/v1/tickets/{id}/approve", h.Approve)
	r.Post("/v1/tickets/{id}/reject", h.Reject)
	r.Post("/v1/tickets/{id}/comments", h.AddComment)
	return r
}

func TestSubmitHandler(t *testing.T) {
	gate := &stubGate{submitResult: &domain.SubmitResult{
		Status:        domain.SubmitAwaitingApproval,
		TicketID:      "HITL-9f3a21d4",
		RequiredLevel: domain.LevelHumanReview,
	}}
	router := testRouter(NewTicketHandler(gate), "agent-gw")

	body := `{"workspace_id":"ws-1","agent_id":"agent-7","task_type":"STRATEGIC","action":"UPDATE_STRATEGY","estimated_cost_usd":10}`
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/submit", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.SubmitAwaitingApproval, res.Status)
	assert.Equal(t, "HITL-9f3a21d4", res.TicketID)

	require.NotNil(t, gate.lastSubmit)
	assert.Equal(t, domain.ActionUpdateStrategy, gate.lastSubmit.Action)
}

func TestSubmitHandlerBudgetExceededIsOK(t *testing.T) {
	// Отказ по бюджету — штатный исход конвейера, не ошибка транспорта
	gate := &stubGate{submitResult: &domain.SubmitResult{
		Status:       domain.SubmitBudgetExceeded,
		RemainingUSD: 2,
		LimitUSD:     10,
	}}
	router := testRouter(NewTicketHandler(gate), "agent-gw")

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/submit",
		bytes.NewBufferString(`{"workspace_id":"ws-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BUDGET_EXCEEDED")
}

func TestSubmitHandlerRejectsMalformedBody(t *testing.T) {
	router := testRouter(NewTicketHandler(&stubGate{}), "agent-gw")

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks/submit", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &domain.ValidationError{Field: "action", Reason: "unknown"}, http.StatusBadRequest},
		{"not found", domain.ErrTicketNotFound, http.StatusNotFound},
		{"already resolved", domain.ErrAlreadyResolved, http.StatusConflict},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusConflict},
		{"budget", &domain.BudgetExceededError{RemainingUSD: 1, LimitUSD: 10, RequestedUSD: 5}, http.StatusConflict},
		{"unauthorized", domain.ErrUnauthorized, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gate := &stubGate{err: tc.err}
			router := testRouter(NewTicketHandler(gate), "owner-1")

			req := httptest.NewRequest(http.MethodPost, "/v1/tickets/HITL-9f3a21d4/approve", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestApproveHandlerPassesIdentity(t *testing.T) {
	resolvedBy := "owner-1"
	gate := &stubGate{ticket: &domain.HITLTicket{
		ID:         "HITL-9f3a21d4",
		Status:     domain.StatusApproved,
		ResolvedBy: &resolvedBy,
	}}
	router := testRouter(NewTicketHandler(gate), "owner-1")

	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/HITL-9f3a21d4/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-1", gate.lastCaller)
	assert.Equal(t, "HITL-9f3a21d4", gate.lastTicketID)
}

func TestApproveHandlerWithoutIdentity(t *testing.T) {
	router := testRouter(NewTicketHandler(&stubGate{}), "")

	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/HITL-9f3a21d4/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectHandlerReasonOptional(t *testing.T) {
	gate := &stubGate{ticket: &domain.HITLTicket{ID: "HITL-9f3a21d4", Status: domain.StatusRejected}}
	router := testRouter(NewTicketHandler(gate), "pm-1")

	// Без тела
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/HITL-9f3a21d4/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gate.lastReason)

	// С причиной
	req = httptest.NewRequest(http.MethodPost, "/v1/tickets/HITL-9f3a21d4/reject",
		bytes.NewBufferString(`{"reason":"too aggressive"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "too aggressive", gate.lastReason)
}

func TestListHandler(t *testing.T) {
	gate := &stubGate{tickets: []*domain.HITLTicket{
		{ID: "HITL-11111111", Status: domain.StatusPending},
		{ID: "HITL-22222222", Status: domain.StatusPending},
	}}
	router := testRouter(NewTicketHandler(gate), "viewer-1")

	req := httptest.NewRequest(http.MethodGet, "/v1/tickets?workspace_id=ws-1&status=PENDING", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []*domain.HITLTicket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
	assert.Equal(t, "viewer-1", gate.lastCaller)
}

func TestAddCommentHandler(t *testing.T) {
	gate := &stubGate{comment: &domain.Comment{
		ID:       "c-1",
		TicketID: "HITL-9f3a21d4",
		Author:   "viewer-1",
		Body:     "revisit next quarter",
	}}
	router := testRouter(NewTicketHandler(gate), "viewer-1")

	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/HITL-9f3a21d4/comments",
		bytes.NewBufferString(`{"body":"revisit next quarter"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "revisit next quarter", gate.lastBody)
}
