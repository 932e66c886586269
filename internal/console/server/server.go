package server

import (
	"context"
	"net/http"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/console/handler"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Интерфейс для проверки токенов (RS256)
	authValidator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler   *handler.AuthHandler   // /auth/token
	ticketHandler *handler.TicketHandler // /v1/tasks, /v1/tickets (HITL)

	metricsRegistry *prometheus.Registry
}

// NewConsoleServer инициализирует сервер шлюза со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	ticketH *handler.TicketHandler,
	reg *prometheus.Registry,
) *ConsoleServer {
	s := &ConsoleServer{
		router:          chi.NewRouter(),
		logger:          logger.Named("console-api"),
		cfg:             cfg,
		authValidator:   validator,
		authHandler:     authH,
		ticketHandler:   ticketH,
		metricsRegistry: reg,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(tracingMiddleware)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		if s.metricsRegistry != nil {
			r.Handle("/metrics", promhttp.HandlerFor(s.metricsRegistry, promhttp.HandlerOpts{}))
		}
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требуют RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		// Вход конвейера допуска (агентский рантайм)
		r.Post("/v1/tasks/submit", s.ticketHandler.Submit)

		// Human-in-the-loop (Decision Queue)
		r.Route("/v1/tickets", func(r chi.Router) {
			r.Get("/", s.ticketHandler.List) // Очередь тикетов на ревью
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.ticketHandler.GetDetails)
				r.Post("/approve", s.ticketHandler.Approve)      // Решение + Redis Publish + исполнение
				r.Post("/reject", s.ticketHandler.Reject)        // Решение + Redis Publish
				r.Post("/comments", s.ticketHandler.AddComment)  // Append-only тред
			})
		})
	})
}

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const traceIDKey ctxKey = "trace_id"

// tracingMiddleware присваивает сквозной Trace-ID каждому запросу
func tracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Пытаемся достать ID из заголовка (если пришел от агента/прокси)
		traceID := r.Header.Get("X-Trace-ID")

		// 2. Если его нет — генерируем новый
		if traceID == "" {
			traceID = uuid.New().String()
		}

		// 3. Кладем в контекст и в ответ, чтобы клиент знал ID своего запроса
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
