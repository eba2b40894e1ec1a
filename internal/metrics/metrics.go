// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// reminder.TriggerMetrics、journal.SentimentMetrics、
// middleware.StatusObserverの各インターフェースを満たす。
type Collector struct {
	triggerScheduled    prometheus.Counter
	triggerScheduleFail prometheus.Counter
	triggerCanceled     prometheus.Counter
	triggerCancelFail   prometheus.Counter
	sentimentCalls      *prometheus.CounterVec
	sentimentLatency    prometheus.Histogram
	chatReplies         prometheus.Counter
	httpStatus          *prometheus.CounterVec
	orphansDeleted      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		triggerScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gunluk_trigger_scheduled_total",
			Help: "通知トリガー登録成功の合計数",
		}),
		triggerScheduleFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gunluk_trigger_schedule_fail_total",
			Help: "通知トリガー登録失敗の合計数",
		}),
		triggerCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gunluk_trigger_canceled_total",
			Help: "通知トリガー解除成功の合計数",
		}),
		triggerCancelFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gunluk_trigger_cancel_fail_total",
			Help: "通知トリガー解除失敗の合計数",
		}),
		sentimentCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gunluk_sentiment_calls_total",
			Help: "感情分析API呼び出しの結果別の合計数",
		}, []string{"result"}),
		sentimentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gunluk_sentiment_latency_seconds",
			Help:    "感情分析API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		chatReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gunluk_chat_replies_total",
			Help: "チャット応答生成の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gunluk_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
		orphansDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gunluk_attachment_orphans_deleted_total",
			Help: "掃除ワーカーが削除した孤児添付画像の合計数",
		}),
	}

	reg.MustRegister(
		c.triggerScheduled,
		c.triggerScheduleFail,
		c.triggerCanceled,
		c.triggerCancelFail,
		c.sentimentCalls,
		c.sentimentLatency,
		c.chatReplies,
		c.httpStatus,
		c.orphansDeleted,
	)

	return c
}

// RecordTriggerScheduled は通知トリガー登録成功を記録する。
func (c *Collector) RecordTriggerScheduled() {
	c.triggerScheduled.Inc()
}

// RecordTriggerScheduleFailed は通知トリガー登録失敗を記録する。
func (c *Collector) RecordTriggerScheduleFailed() {
	c.triggerScheduleFail.Inc()
}

// RecordTriggerCanceled は通知トリガー解除成功を記録する。
func (c *Collector) RecordTriggerCanceled() {
	c.triggerCanceled.Inc()
}

// RecordTriggerCancelFailed は通知トリガー解除失敗を記録する。
func (c *Collector) RecordTriggerCancelFailed() {
	c.triggerCancelFail.Inc()
}

// ObserveAnalyze は感情分析呼び出しの結果とレイテンシを記録する。
func (c *Collector) ObserveAnalyze(duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.sentimentCalls.WithLabelValues(result).Inc()
	c.sentimentLatency.Observe(duration.Seconds())
}

// RecordChatReply はチャット応答の生成を記録する。
func (c *Collector) RecordChatReply() {
	c.chatReplies.Inc()
}

// ObserveHTTPStatus はHTTPレスポンスのステータスコードを記録する。
func (c *Collector) ObserveHTTPStatus(method, path string, statusCode int) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordOrphansDeleted は削除された孤児添付画像の件数を記録する。
func (c *Collector) RecordOrphansDeleted(count int64) {
	c.orphansDeleted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
