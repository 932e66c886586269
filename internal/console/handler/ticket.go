package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra/auth"
	"github.com/go-chi/chi/v5"
)

// GateService Описываем, что нам нужно от шлюза одобрений
type GateService interface {
	Submit(ctx context.Context, req *domain.TaskRequest) (*domain.SubmitResult, error)
	List(ctx context.Context, callerID string, f domain.TicketFilter) ([]*domain.HITLTicket, error)
	GetTicket(ctx context.Context, callerID, ticketID string) (*domain.HITLTicket, error)
	Approve(ctx context.Context, ticketID, approverID string) (*domain.HITLTicket, error)
	Reject(ctx context.Context, ticketID, approverID string, reason string) (*domain.HITLTicket, error)
	AddComment(ctx context.Context, ticketID, authorID, body string) (*domain.Comment, error)
}

type TicketHandler struct {
	service GateService
}

func NewTicketHandler(s GateService) *TicketHandler {
	return &TicketHandler{service: s}
}

// Submit — вход конвейера: задача агента на допуск.
// POST /v1/tasks/submit
func (h *TicketHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	// BUDGET_EXCEEDED — штатный исход конвейера, тоже 200
	writeJSON(w, http.StatusOK, result)
}

// List возвращает очередь тикетов воркспейса
// GET /v1/tickets?workspace_id=...&status=...&agent_type=...
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	f := domain.TicketFilter{
		WorkspaceID: r.URL.Query().Get("workspace_id"),
		Status:      domain.TicketStatus(r.URL.Query().Get("status")),
		AgentType:   r.URL.Query().Get("agent_type"),
	}

	list, err := h.service.List(r.Context(), callerID, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetDetails — тикет вместе с тредом комментариев.
func (h *TicketHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticket, err := h.service.GetTicket(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// Approve фиксирует одобрение и запускает колбэк исполнения.
// POST /v1/tickets/{id}/approve
func (h *TicketHandler) Approve(w http.ResponseWriter, r *http.Request) {
	approverID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticket, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), approverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject — тот же transition guard, с опциональной причиной.
// POST /v1/tickets/{id}/reject
func (h *TicketHandler) Reject(w http.ResponseWriter, r *http.Request) {
	approverID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req rejectRequest
	if r.Body != nil {
		// Тело опционально: reject без причины валиден
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ticket, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), approverID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

type commentRequest struct {
	Body string `json:"body"`
}

// AddComment — append-only тред тикета, доступен в любом статусе.
// POST /v1/tickets/{id}/comments
func (h *TicketHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	authorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), authorID, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError маппит таксономию ошибок шлюза в HTTP статусы.
// Ни одна из них не ретраится сервером: это либо ошибка вызывающего,
// либо легитимное терминальное состояние.
func writeError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var bErr *domain.BudgetExceededError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrTicketNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyResolved), errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.As(err, &bErr):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
