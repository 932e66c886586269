package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/audit"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TicketRepository описывает требования сервиса к хранилищу тикетов.
// ResolveTicket обязан быть атомарным CAS по статусу: переход применяется
// только если текущий статус PENDING, проигравший гонку получает
// ErrAlreadyResolved, а не ретрай.
type TicketRepository interface {
	CreateTicket(ctx context.Context, t *domain.HITLTicket) error
	GetTicketByID(ctx context.Context, id string) (*domain.HITLTicket, error)
	FindTickets(ctx context.Context, f domain.TicketFilter) ([]*domain.HITLTicket, error)
	ResolveTicket(ctx context.Context, id string, status domain.TicketStatus, resolvedBy string, reason *string, at time.Time) (*domain.HITLTicket, error)
	ExpirePending(ctx context.Context, cutoff time.Time, at time.Time) ([]*domain.HITLTicket, error)
	AddComment(ctx context.Context, c *domain.Comment) error
}

// LedgerRepository — бюджетная книга воркспейса. CommitSpend —
// атомарный условный инкремент: списывает только если пост-инкрементное
// значение остается в пределах лимита, иначе *BudgetExceededError
// с состоянием книги после коммита победителя.
type LedgerRepository interface {
	GetLedger(ctx context.Context, workspaceID string) (*domain.BudgetLedger, error)
	CommitSpend(ctx context.Context, workspaceID string, amountUSD float64) (*domain.BudgetLedger, error)
}

// ProfileProvider отдает autonomy-профиль воркспейса (за ним может стоять
// L1 кэш, см. ProfileCache).
type ProfileProvider interface {
	GetProfile(ctx context.Context, workspaceID string) (domain.AutonomyProfile, error)
}

// PerspectiveProvider отдает роль вызывающего в рамках воркспейса.
type PerspectiveProvider interface {
	GetPerspective(ctx context.Context, userID, workspaceID string) (domain.Perspective, error)
}

// Executor — внешний callback исполнения (агентский рантайм).
type Executor interface {
	Execute(ctx context.Context, task *domain.TaskRequest) ([]byte, error)
}

// Deps — зависимости шлюза одобрений.
type Deps struct {
	Tickets      TicketRepository
	Ledgers      LedgerRepository
	Profiles     ProfileProvider
	Perspectives PerspectiveProvider
	Executor     Executor
	Classifier   *Classifier
	Trail        audit.Recorder
	Metrics      *Metrics
	RDB          *redis.Client // опционален: без него решения просто не транслируются
	TicketTTL    time.Duration
	Logger       *zap.Logger
}

// Service — оркестратор конвейера: Budget Guard -> Classifier -> Resolver ->
// Ticket Store, плюс операции решения через Access Gate.
type Service struct {
	tickets      TicketRepository
	ledgers      LedgerRepository
	profiles     ProfileProvider
	perspectives PerspectiveProvider
	executor     Executor
	classifier   *Classifier
	access       AccessGate
	trail        audit.Recorder
	metrics      *Metrics
	rdb          *redis.Client
	ticketTTL    time.Duration
	logger       *zap.Logger
}

func NewService(d Deps) *Service {
	m := d.Metrics
	if m == nil {
		m = NewMetrics(nil)
	}
	ttl := d.TicketTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Service{
		tickets:      d.Tickets,
		ledgers:      d.Ledgers,
		profiles:     d.Profiles,
		perspectives: d.Perspectives,
		executor:     d.Executor,
		classifier:   d.Classifier,
		trail:        d.Trail,
		metrics:      m,
		rdb:          d.RDB,
		ticketTTL:    ttl,
		logger:       d.Logger.Named("gate"),
	}
}

// Submit прогоняет запрос агента через конвейер допуска.
//
// Порядок фиксирован: валидация -> классификация -> бюджет -> autonomy.
// BUDGET_EXCEEDED обрывает конвейер даже для задач, которые прошли бы
// на авто-исполнение, и тикет при этом НЕ создается: человеческое
// решение бюджет задним числом не создаст.
func (s *Service) Submit(ctx context.Context, req *domain.TaskRequest) (*domain.SubmitResult, error) {
	start := time.Now()
	outcome := "ERROR"
	defer func() {
		s.metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
		s.metrics.SubmitDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	// 1. Отбрасываем мусор до любых изменений состояния
	if err := req.Validate(); err != nil {
		outcome = "VALIDATION_ERROR"
		return nil, err
	}

	// 2. Классификация риска (чистая функция)
	level, err := s.classifier.Classify(req.TaskType, req.Action)
	if err != nil {
		outcome = "VALIDATION_ERROR"
		return nil, err
	}

	// 3. Budget Guard: проверка ДО autonomy-резолюции
	ledger, err := s.ledgers.GetLedger(ctx, req.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("gate: budget lookup failed: %w", err)
	}
	if !ledger.CanAfford(req.EstimatedCostUSD) {
		outcome = string(domain.SubmitBudgetExceeded)
		s.record(req, "", string(domain.SubmitBudgetExceeded), "",
			fmt.Sprintf("requested $%.2f, remaining $%.2f", req.EstimatedCostUSD, ledger.RemainingUSD()))
		return &domain.SubmitResult{
			Status:        domain.SubmitBudgetExceeded,
			RequiredLevel: level,
			RemainingUSD:  ledger.RemainingUSD(),
			LimitUSD:      ledger.LimitUSD,
		}, nil
	}

	// 4. Autonomy Policy Resolver
	profile, err := s.profiles.GetProfile(ctx, req.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("gate: autonomy profile lookup failed: %w", err)
	}

	if Resolve(profile.Mode, level) == ResolutionAllow {
		return s.autoExecute(ctx, req, level, profile.Mode, &outcome)
	}

	// 5. Очередь на ревью: снапшотим запрос в тикет
	ticket := s.buildTicket(req, level)
	if err := s.tickets.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("gate: ticket creation failed: %w", err)
	}
	s.metrics.PendingTickets.Inc()

	outcome = string(domain.SubmitAwaitingApproval)
	s.record(req, ticket.ID, string(domain.SubmitAwaitingApproval), "", "required "+level.String())
	s.logger.Info("task queued for human review",
		zap.String("ticket_id", ticket.ID),
		zap.String("workspace_id", req.WorkspaceID),
		zap.String("required_level", level.String()),
		zap.String("autonomy_mode", string(profile.Mode)))

	return &domain.SubmitResult{
		Status:          domain.SubmitAwaitingApproval,
		TicketID:        ticket.ID,
		RequiredLevel:   level,
		CurrentAutonomy: profile.Mode,
	}, nil
}

// autoExecute — путь, который реально доходит до исполнения: только здесь
// (и в Approve) происходит коммит spent_usd.
func (s *Service) autoExecute(ctx context.Context, req *domain.TaskRequest, level domain.RequiredLevel, mode domain.AutonomyMode, outcome *string) (*domain.SubmitResult, error) {
	_, err := s.ledgers.CommitSpend(ctx, req.WorkspaceID, req.EstimatedCostUSD)
	if err != nil {
		var bErr *domain.BudgetExceededError
		if errors.As(err, &bErr) {
			// Проиграли гонку за остаток: отдаем состояние книги
			// ПОСЛЕ коммита победителя
			*outcome = string(domain.SubmitBudgetExceeded)
			s.record(req, "", string(domain.SubmitBudgetExceeded), "", bErr.Error())
			return &domain.SubmitResult{
				Status:        domain.SubmitBudgetExceeded,
				RequiredLevel: level,
				RemainingUSD:  bErr.RemainingUSD,
				LimitUSD:      bErr.LimitUSD,
			}, nil
		}
		return nil, fmt.Errorf("gate: budget commit failed: %w", err)
	}

	out, err := s.executor.Execute(ctx, req)
	if err != nil {
		s.logger.Error("runtime execution failed after budget commit",
			zap.String("workspace_id", req.WorkspaceID),
			zap.String("action", string(req.Action)),
			zap.Error(err))
		return nil, fmt.Errorf("gate: execution failed: %w", err)
	}

	*outcome = string(domain.SubmitExecuted)
	s.record(req, "", string(domain.SubmitExecuted), "", "")
	return &domain.SubmitResult{
		Status:          domain.SubmitExecuted,
		Result:          out,
		RequiredLevel:   level,
		CurrentAutonomy: mode,
	}, nil
}

func (s *Service) buildTicket(req *domain.TaskRequest, level domain.RequiredLevel) *domain.HITLTicket {
	return &domain.HITLTicket{
		ID:               NewTicketID(),
		WorkspaceID:      req.WorkspaceID,
		AgentID:          req.AgentID,
		AgentType:        req.AgentType,
		TaskType:         req.TaskType,
		Action:           req.Action,
		Priority:         domain.PriorityForLevel(level),
		Status:           domain.StatusPending,
		Rationale:        req.Prompt,
		EstimatedImpact:  fmt.Sprintf("estimated spend $%.2f", req.EstimatedCostUSD),
		EstimatedCostUSD: req.EstimatedCostUSD,
		Context:          req.Context,
		CreatedAt:        time.Now().UTC(),
	}
}

// NewTicketID — стабильный человекочитаемый идентификатор: суффикса UUID
// достаточно для уникальности, префикс делает его узнаваемым в чатах и логах.
func NewTicketID() string {
	return "HITL-" + uuid.New().String()[:8]
}

// Approve фиксирует решение ревьюера. CAS по статусу идет первым и
// является единственной гарантией at-most-once: победитель коммитит
// бюджет и дергает колбэк исполнения, проигравший получает
// ErrAlreadyResolved без ретрая.
func (s *Service) Approve(ctx context.Context, ticketID, approverID string) (*domain.HITLTicket, error) {
	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	persp, err := s.perspectives.GetPerspective(ctx, approverID, ticket.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanResolve(persp, ticket.WorkspaceID); err != nil {
		return nil, err
	}

	// Предварительная проверка бюджета: одобрение закрытой книгой не
	// подтверждаем, тикет остается PENDING
	ledger, err := s.ledgers.GetLedger(ctx, ticket.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("gate: budget lookup failed: %w", err)
	}
	if !ledger.CanAfford(ticket.EstimatedCostUSD) {
		return nil, &domain.BudgetExceededError{
			RemainingUSD: ledger.RemainingUSD(),
			LimitUSD:     ledger.LimitUSD,
			RequestedUSD: ticket.EstimatedCostUSD,
		}
	}

	resolved, err := s.tickets.ResolveTicket(ctx, ticketID, domain.StatusApproved, approverID, nil, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.metrics.PendingTickets.Dec()
	s.metrics.ResolutionsTotal.WithLabelValues(string(domain.StatusApproved)).Inc()

	// Коммит расхода — только на пути, реально дошедшем до исполнения.
	// Узкая гонка: книга могла закрыться между проверкой и коммитом,
	// тогда тикет остается APPROVED, но исполнение не запускается.
	if _, err := s.ledgers.CommitSpend(ctx, ticket.WorkspaceID, ticket.EstimatedCostUSD); err != nil {
		s.logger.Warn("approved ticket could not commit budget, execution skipped",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
		s.recordTicket(resolved, audit.OutcomeApproved, approverID, "budget commit failed: "+err.Error())
		s.publishDecision(ctx, ticketID, domain.StatusApproved)
		return resolved, nil
	}

	s.publishDecision(ctx, ticketID, domain.StatusApproved)

	task := taskFromTicket(resolved)
	if _, execErr := s.executor.Execute(ctx, task); execErr != nil {
		// Решение человека уже зафиксировано; сбой рантайма — его зона
		s.logger.Error("execution callback failed for approved ticket",
			zap.String("ticket_id", ticketID),
			zap.Error(execErr))
		s.recordTicket(resolved, audit.OutcomeApproved, approverID, "execution failed: "+execErr.Error())
		return resolved, nil
	}

	s.recordTicket(resolved, audit.OutcomeApproved, approverID, "")
	s.logger.Info("HITL decision processed successfully",
		zap.String("ticket_id", ticketID),
		zap.String("reviewer", approverID),
		zap.String("result", string(domain.StatusApproved)))
	return resolved, nil
}

// Reject — тот же transition guard, но без бюджета и исполнения.
func (s *Service) Reject(ctx context.Context, ticketID, approverID string, reason string) (*domain.HITLTicket, error) {
	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	persp, err := s.perspectives.GetPerspective(ctx, approverID, ticket.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanResolve(persp, ticket.WorkspaceID); err != nil {
		return nil, err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	resolved, err := s.tickets.ResolveTicket(ctx, ticketID, domain.StatusRejected, approverID, reasonPtr, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.metrics.PendingTickets.Dec()
	s.metrics.ResolutionsTotal.WithLabelValues(string(domain.StatusRejected)).Inc()

	s.publishDecision(ctx, ticketID, domain.StatusRejected)
	s.recordTicket(resolved, audit.OutcomeRejected, approverID, reason)
	s.logger.Info("HITL decision processed successfully",
		zap.String("ticket_id", ticketID),
		zap.String("reviewer", approverID),
		zap.String("result", string(domain.StatusRejected)))
	return resolved, nil
}

// List — очередь тикетов воркспейса, новые сверху. Read-only.
func (s *Service) List(ctx context.Context, callerID string, f domain.TicketFilter) ([]*domain.HITLTicket, error) {
	if f.WorkspaceID == "" {
		return nil, &domain.ValidationError{Field: "workspace_id", Reason: "required"}
	}
	persp, err := s.perspectives.GetPerspective(ctx, callerID, f.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanView(persp, f.WorkspaceID); err != nil {
		return nil, err
	}
	return s.tickets.FindTickets(ctx, f)
}

// GetTicket — детали одного тикета вместе с тредом комментариев.
func (s *Service) GetTicket(ctx context.Context, callerID, ticketID string) (*domain.HITLTicket, error) {
	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	persp, err := s.perspectives.GetPerspective(ctx, callerID, ticket.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanView(persp, ticket.WorkspaceID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AddComment — append-only тред. Разрешен в любом статусе тикета,
// включая закрытые (заметка для аудита).
func (s *Service) AddComment(ctx context.Context, ticketID, authorID, body string) (*domain.Comment, error) {
	if body == "" {
		return nil, &domain.ValidationError{Field: "body", Reason: "required"}
	}

	ticket, err := s.tickets.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	persp, err := s.perspectives.GetPerspective(ctx, authorID, ticket.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanView(persp, ticket.WorkspaceID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.New().String(),
		TicketID:  ticket.ID,
		Author:    authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("gate: comment append failed: %w", err)
	}
	return comment, nil
}

// ExpireSweep переводит протухшие PENDING тикеты в EXPIRED.
// Единственный путь смены статуса без человека: логируется,
// но никому не отдается как ошибка.
func (s *Service) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.ticketTTL)
	expired, err := s.tickets.ExpirePending(ctx, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("gate: expire sweep failed: %w", err)
	}

	for _, t := range expired {
		s.metrics.ExpiredTotal.Inc()
		s.metrics.PendingTickets.Dec()
		s.publishDecision(ctx, t.ID, domain.StatusExpired)
		s.recordTicket(t, audit.OutcomeExpired, "", "ttl "+s.ticketTTL.String())
		s.logger.Info("ticket expired without decision",
			zap.String("ticket_id", t.ID),
			zap.String("workspace_id", t.WorkspaceID),
			zap.Time("created_at", t.CreatedAt))
	}
	return len(expired), nil
}

// publishDecision будит агентский рантайм, ожидающий вердикт по тикету.
// Redis здесь best-effort: при недоступности рантайм доберет статус поллингом.
func (s *Service) publishDecision(ctx context.Context, ticketID string, status domain.TicketStatus) {
	if s.rdb == nil {
		return
	}
	chanName := infra.TicketDecisionChannel(ticketID)
	if err := s.rdb.Publish(ctx, chanName, string(status)).Err(); err != nil {
		s.logger.Warn("decision saved but signal not delivered",
			zap.String("ticket_id", ticketID),
			zap.String("channel", chanName),
			zap.Error(err))
	}
}

func (s *Service) record(req *domain.TaskRequest, ticketID, outcome, actor, detail string) {
	if s.trail == nil {
		return
	}
	s.trail.Record(audit.Event{
		ID:          uuid.New().String(),
		WorkspaceID: req.WorkspaceID,
		AgentID:     req.AgentID,
		TicketID:    ticketID,
		Action:      string(req.Action),
		Outcome:     outcome,
		Actor:       actor,
		Detail:      detail,
		Timestamp:   time.Now().UTC(),
	})
}

func (s *Service) recordTicket(t *domain.HITLTicket, outcome, actor, detail string) {
	if s.trail == nil {
		return
	}
	s.trail.Record(audit.Event{
		ID:          uuid.New().String(),
		WorkspaceID: t.WorkspaceID,
		AgentID:     t.AgentID,
		TicketID:    t.ID,
		Action:      string(t.Action),
		Outcome:     outcome,
		Actor:       actor,
		Detail:      detail,
		Timestamp:   time.Now().UTC(),
	})
}

func taskFromTicket(t *domain.HITLTicket) *domain.TaskRequest {
	return &domain.TaskRequest{
		WorkspaceID:      t.WorkspaceID,
		AgentID:          t.AgentID,
		AgentType:        t.AgentType,
		TaskType:         t.TaskType,
		Action:           t.Action,
		EstimatedCostUSD: t.EstimatedCostUSD,
		Prompt:           t.Rationale,
		Context:          t.Context,
	}
}
