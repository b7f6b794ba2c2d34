// Package telemetry provides Prometheus metrics, OpenTelemetry tracing and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	JoinsProcessed      = promauto.NewCounterVec(prometheus.CounterOpts{Name: "invites_joins_processed_total", Help: "Member joins handled, by outcome"}, []string{"outcome"})
	InviteFetchFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "invites_fetch_failures_total", Help: "Failed live invite fetches"})
	LedgerMutations     = promauto.NewCounterVec(prometheus.CounterOpts{Name: "invites_ledger_mutations_total", Help: "Invite ledger mutations, by kind"}, []string{"kind"})
	RoomActions         = promauto.NewCounterVec(prometheus.CounterOpts{Name: "rooms_actions_total", Help: "Room actions, by action and fault class"}, []string{"action", "result"})
	InteractionsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bot_interactions_total", Help: "Interactions handled, by route and fault class"}, []string{"route", "result"})
	JobRuns             = promauto.NewCounterVec(prometheus.CounterOpts{Name: "scheduler_job_runs_total", Help: "Scheduled job runs, by job and result"}, []string{"job", "result"})

	// Histograms (seconds)
	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "bot_handler_duration_seconds", Help: "Gateway event handler duration seconds", Buckets: prometheus.DefBuckets}, []string{"event"})
	JobDuration     = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "scheduler_job_duration_seconds", Help: "Scheduled job duration seconds", Buckets: prometheus.DefBuckets}, []string{"job"})

	// Gauges
	ActiveRooms    = promauto.NewGauge(prometheus.GaugeOpts{Name: "rooms_active", Help: "Rooms currently registered"})
	SnapshotGuilds = promauto.NewGauge(prometheus.GaugeOpts{Name: "invites_snapshot_guilds", Help: "Guilds with a primed invite snapshot"})
	GatewayUp      = promauto.NewGauge(prometheus.GaugeOpts{Name: "bot_gateway_connected", Help: "Gateway connected=1 disconnected=0"})
	DBOpenConns    = promauto.NewGauge(prometheus.GaugeOpts{Name: "db_connections_open", Help: "Open database connections"})
	DBInUseConns   = promauto.NewGauge(prometheus.GaugeOpts{Name: "db_connections_in_use", Help: "Database connections in use"})
)

// UpdateDatabasePoolMetrics records connection pool usage.
func UpdateDatabasePoolMetrics(open, inUse int) {
	DBOpenConns.Set(float64(open))
	DBInUseConns.Set(float64(inUse))
}

var gatewayConnected atomic.Bool

// SetGatewayUp sets the gateway gauge to 1 if connected else 0.
func SetGatewayUp(up bool) {
	gatewayConnected.Store(up)
	if up {
		GatewayUp.Set(1)
	} else {
		GatewayUp.Set(0)
	}
}

// GatewayConnected reports the last state passed to SetGatewayUp.
func GatewayConnected() bool {
	return gatewayConnected.Load()
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context carrying the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
