package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/climalight/internal/api/models"
	"github.com/smazurov/climalight/internal/metrics"
)

const defaultMetricsInterval = 5 * time.Second

func metricsSnapshot() models.MetricsSnapshot {
	return models.MetricsSnapshot{
		Counters:  metrics.Counts(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// registerMetricsRoutes registers the metrics SSE endpoint
func (s *Server) registerMetricsRoutes() {
	interval := s.options.MetricsInterval
	if interval <= 0 {
		interval = defaultMetricsInterval
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "metrics-stream",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "Metrics Server-Sent Events Stream",
		Description: "Periodic snapshots of the device counters",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"metrics": models.MetricsSnapshot{},
	}, func(ctx context.Context, input *struct{}, send sse.Sender) {
		if err := send.Data(metricsSnapshot()); err != nil {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := send.Data(metricsSnapshot()); err != nil {
					return
				}
			}
		}
	})
}
