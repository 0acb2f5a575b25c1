// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ルーター、ミドルウェア、サービス層から利用する。
type MetricsCollector interface {
	RecordRPC(procedure, kind string, statusCode int, duration time.Duration)
	RecordSubscription(outcome string)
	RecordWelcomeEmail(sent bool)
	RecordRateLimited(limitType string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	rpcRequests   *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	subscriptions *prometheus.CounterVec
	welcomeEmails *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulletin_rpc_requests_total",
			Help: "プロシージャ・種別・HTTPステータス別のRPC呼び出し数",
		}, []string{"procedure", "kind", "status_code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bulletin_rpc_duration_seconds",
			Help:    "プロシージャ別のRPC処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulletin_subscriptions_total",
			Help: "結果区分別の購読登録数",
		}, []string{"outcome"}),
		welcomeEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulletin_welcome_email_total",
			Help: "ウェルカムメールの送信結果別の件数",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulletin_rate_limited_total",
			Help: "レート制限で拒否したリクエスト数",
		}, []string{"limit_type"}),
	}

	reg.MustRegister(
		c.rpcRequests,
		c.rpcLatency,
		c.subscriptions,
		c.welcomeEmails,
		c.rateLimited,
	)

	return c
}

// RecordRPC はRPC呼び出しの結果と処理時間を記録する。
func (c *Collector) RecordRPC(procedure, kind string, statusCode int, duration time.Duration) {
	c.rpcRequests.WithLabelValues(procedure, kind, strconv.Itoa(statusCode)).Inc()
	c.rpcLatency.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordSubscription は購読登録の結果を記録する。
func (c *Collector) RecordSubscription(outcome string) {
	c.subscriptions.WithLabelValues(outcome).Inc()
}

// RecordWelcomeEmail はウェルカムメールの送信結果を記録する。
func (c *Collector) RecordWelcomeEmail(sent bool) {
	result := "success"
	if !sent {
		result = "failure"
	}
	c.welcomeEmails.WithLabelValues(result).Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(limitType string) {
	c.rateLimited.WithLabelValues(limitType).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
