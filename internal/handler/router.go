package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microcrm/internal/metrics"
	"github.com/hitoshi/microcrm/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenValidator    middleware.TokenValidator
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// メトリクス（nilの場合は記録しない）
	HTTPMetrics     metrics.HTTPRecorder
	TokenRejections metrics.TokenRejectionRecorder
	MetricsHandler  http.Handler

	// 認証
	AuthService AuthServiceInterface

	// 顧客
	ClientService ClientServiceInterface

	// ヘルスチェック
	DB      DBPinger
	Version string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Metrics → Logging → Recovery → SecurityHeaders → CORS → (Auth)
//
// 認証が必要なルートのみAuthミドルウェアを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	clientHandler := NewClientHandler(deps.ClientService)
	healthHandler := NewHealthHandler(deps.DB, deps.Version)

	// --- 認証不要のルート ---

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenValidator, deps.TokenRejections))
			r.Get("/profile", authHandler.Profile)
			r.Get("/me", authHandler.Me)
		})
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenValidator, deps.TokenRejections))

		r.Route("/api/clients", func(r chi.Router) {
			r.Get("/", clientHandler.ListClients)
			r.Post("/", clientHandler.CreateClient)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", clientHandler.GetClient)
				r.Patch("/", clientHandler.UpdateClient)
				r.Delete("/", clientHandler.DeleteClient)
			})
		})
	})

	return r
}
