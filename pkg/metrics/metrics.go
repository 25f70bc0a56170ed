// Package metrics 定义 Prometheus 指标，由 /metrics 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessResolutions 权限解析次数；source: cache | store，result: ok | error
	AccessResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "access_resolutions_total",
		Help:      "权限上下文解析次数",
	}, []string{"source", "result"})

	// AccessDowngrades 刷新时观察到的权限降级次数
	AccessDowngrades = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "access_downgrades_total",
		Help:      "刷新权限时发现的降级次数",
	})

	// Votes 投票结果；outcome: applied | noop | superseded | failed
	Votes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "votes_total",
		Help:      "投票操作结果",
	}, []string{"outcome"})

	// VoteConflicts 投票并发冲突次数（含自动重试成功的）
	VoteConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "vote_conflicts_total",
		Help:      "投票并发冲突次数",
	})

	// ComplaintTransitions 投诉状态流转；channel: anonymous | department
	ComplaintTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "complaint_transitions_total",
		Help:      "投诉状态流转次数",
	}, []string{"channel", "to_status"})

	// HTTPRequests 请求耗时；route 为路由模板，避免 ID 造成标签膨胀
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wellness",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// Notifications 通知结果；result: sent | failed | skipped
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness",
		Name:      "notifications_total",
		Help:      "外部通知发送结果",
	}, []string{"result"})
)
