package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/bulletin/internal/model"
	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	SubscribeRate   rate.Limit    // 購読登録のレート（req/sec）。10/60
	SubscribeBurst  int           // 購読登録のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/client、購読登録 10 req/min/client
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(120, 10)
}

// NewRateLimiterConfig は1分あたりのリクエスト数からレート制限設定を生成する。
// バーストサイズは1分あたりのリクエスト数と同じにする。
func NewRateLimiterConfig(generalPerMinute, subscribePerMinute int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMinute) / 60.0),
		GeneralBurst:    generalPerMinute,
		SubscribeRate:   rate.Limit(float64(subscribePerMinute) / 60.0),
		SubscribeBurst:  subscribePerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet は1種類のレート制限についてクライアントごとのリミッターを管理する。
type limiterSet struct {
	limit rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*clientLimiter
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
	}
}

// get はクライアントのリミッターを取得または作成する。
func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.RLock()
	cl, exists := s.limiters[key]
	s.mu.RUnlock()

	if exists {
		s.mu.Lock()
		cl.lastAccess = time.Now()
		s.mu.Unlock()
		return cl.limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// ダブルチェック
	if cl, exists := s.limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

func (s *limiterSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.limiters)
}

// evict は最終アクセス時刻がttlを超えたエントリを削除する。
func (s *limiterSet) evict(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, cl := range s.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(s.limiters, key)
		}
	}
}

// RequestCost はリクエストが消費するトークン数を返す。
// 0以下を返したリクエストにはレート制限を適用しない。
type RequestCost func(r *http.Request) int

func singleRequest(*http.Request) int { return 1 }

// RateLimiter はクライアント（接続元IP）ごとのレート制限を管理する。
// API全般のレート制限と購読登録のレート制限の2種類を提供する。
type RateLimiter struct {
	config    RateLimiterConfig
	general   *limiterSet
	subscribe *limiterSet
	logger    *slog.Logger

	// OnReject はリクエストを拒否したときに制限種別を渡して呼ばれる。nilの場合は何もしない。
	OnReject func(limitType string)

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
// loggerがnilの場合はslog.Default()を使う。
func NewRateLimiter(config RateLimiterConfig, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	rl := &RateLimiter{
		config:    config,
		general:   newLimiterSet(config.GeneralRate, config.GeneralBurst),
		subscribe: newLimiterSet(config.SubscribeRate, config.SubscribeBurst),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。1リクエストで1トークンを消費する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general, "general", singleRequest)
}

// GeneralMiddlewareWithCost はcostが返す数のトークンを消費するAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddlewareWithCost(cost RequestCost) func(next http.Handler) http.Handler {
	return rl.middleware(rl.general, "general", cost)
}

// SubscribeMiddleware は購読登録専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) SubscribeMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.subscribe, "subscribe", singleRequest)
}

// SubscribeMiddlewareWithCost はcostが返す数のトークンを消費する購読登録のレート制限ミドルウェアを返す。
// バッチ呼び出しに含まれる購読登録の件数分を消費させるために使う。
func (rl *RateLimiter) SubscribeMiddlewareWithCost(cost RequestCost) func(next http.Handler) http.Handler {
	return rl.middleware(rl.subscribe, "subscribe", cost)
}

func (rl *RateLimiter) middleware(set *limiterSet, limitType string, cost RequestCost) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := cost(r)
			if n <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			client := ClientKey(r)

			// バーストを超えるnは常に拒否される
			if !set.get(client).AllowN(time.Now(), n) {
				writeRateLimitResponse(w, set.limit, n)
				rl.logger.Warn("rate limit exceeded",
					slog.String("client", client),
					slog.String("limit_type", limitType),
					slog.Int("cost", n),
				)
				if rl.OnReject != nil {
					rl.OnReject(limitType)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.len()
}

// SubscribeLimiterCount は現在管理されている購読登録リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) SubscribeLimiterCount() int {
	return rl.subscribe.len()
}

// ClientKey はレート制限に使うクライアント識別子を返す。
// RemoteAddrのホスト部を使う。プロキシ配下ではRealIPミドルウェアを前段に置くこと。
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.general.evict(now, ttl)
	rl.subscribe.evict(now, ttl)
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはn個のトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit, n int) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(float64(n) / float64(r)))
	}
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, &model.APIError{
		Code:     model.ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	})
}
