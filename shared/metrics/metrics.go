// shared/metrics/metrics.go

// Package metrics holds the bot's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNotFound = "not_found"
	ResultEmpty    = "empty"
	ResultSkipped  = "skipped"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dayz_bot_commands_total",
		Help: "Total number of slash command invocations by command and result",
	}, []string{"command", "result"})

	AutoPostCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dayz_bot_autopost_cycles_total",
		Help: "Total number of scheduled leaderboard cycles by destination and result",
	}, []string{"destination", "result"})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dayz_bot_api_requests_total",
		Help: "Total number of stats provider requests by endpoint and result",
	}, []string{"endpoint", "result"})

	APICacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dayz_bot_api_cache_hits_total",
		Help: "Total number of stats provider responses served from cache",
	})

	AutoPostPagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dayz_bot_autopost_pages_sent_total",
		Help: "Total number of leaderboard pages delivered by the scheduler",
	})
)
