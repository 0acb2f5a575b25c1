package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/bulletin/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ヘルスチェック・メトリクス
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	RPCMetrics     RPCMetrics

	// プロシージャ
	PostService       PostServiceInterface
	NewsletterService NewsletterServiceInterface
}

// subscribeProcedure は購読登録専用のレート制限を適用するプロシージャ名。
const subscribeProcedure = "post.subscribeEmail"

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → CORS → SecurityHeaders → Recovery → Logging → BatchSize → RateLimit(General) → RateLimit(Subscribe)
//
// バッチ呼び出しは呼び出し数分のトークンを消費し、含まれるpost.subscribeEmailの件数分だけ
// 購読登録専用のレート制限のトークンも消費する。上限件数を超えるバッチは400で拒否する。
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	// --- 運用系のルート ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker, deps.Logger))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- RPC ---
	registry := NewRegistry(deps.Logger, deps.RPCMetrics)
	registry.Register(PostProcedures(deps.PostService)...)
	registry.Register(SubscribeProcedure(deps.NewsletterService))

	r.Group(func(r chi.Router) {
		r.Use(limitBatchSize)
		r.Use(deps.RateLimiter.GeneralMiddlewareWithCost(countCalls))
		r.Use(deps.RateLimiter.SubscribeMiddlewareWithCost(countCallsTo(subscribeProcedure)))

		r.Handle("/api/trpc/{procedure}", registry)
	})

	return r
}

// limitBatchSize は上限を超えるバッチ呼び出しをレート制限のトークンを消費する前に400で拒否する。
func limitBatchSize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(calledProcedures(r)) > maxBatchCalls {
			writeAPIErrorResponse(w, http.StatusBadRequest, newBatchTooLargeError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// countCalls はリクエストに含まれる呼び出し数を返す。
func countCalls(r *http.Request) int {
	return len(calledProcedures(r))
}

// countCallsTo はリクエストに含まれるnameの呼び出し数を返すRequestCostを生成する。
// 該当する呼び出しが無ければ0となり、レート制限は適用されない。
func countCallsTo(name string) middleware.RequestCost {
	return func(r *http.Request) int {
		n := 0
		for _, called := range calledProcedures(r) {
			if called == name {
				n++
			}
		}
		return n
	}
}
