package server

import (
	"context"

	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/graph"
)

// Health statuses reported by /healthz.
const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// HealthService reports readiness of the engine's data sources.
type HealthService interface {
	Check(ctx context.Context) HealthReport
}

// HealthReport is the /healthz body. Checks maps a source name to "ok" or the
// probe error.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DirectoryProbe is the slice of the directory client used to test
// reachability.
type DirectoryProbe interface {
	Leaderboard(ctx context.Context, limit int) ([]domain.UserRecord, error)
}

// DataSourceHealth probes the graph backing the static tier and the live
// directory. A graph failure makes the engine unavailable. A directory
// failure only degrades it, since queries still fall back to local tiers.
type DataSourceHealth struct {
	Graph     graph.Client
	Directory DirectoryProbe
}

// Check implements HealthService.
func (h DataSourceHealth) Check(ctx context.Context) HealthReport {
	report := HealthReport{Status: StatusOK, Checks: map[string]string{}}

	if h.Directory != nil {
		if _, err := h.Directory.Leaderboard(ctx, 1); err != nil {
			report.Checks["directory"] = err.Error()
			report.Status = StatusDegraded
		} else {
			report.Checks["directory"] = StatusOK
		}
	}

	if h.Graph != nil {
		if err := h.Graph.VerifyConnectivity(ctx); err != nil {
			report.Checks["graph"] = err.Error()
			report.Status = StatusUnavailable
		} else {
			report.Checks["graph"] = StatusOK
		}
	}

	if len(report.Checks) == 0 {
		report.Checks = nil
	}
	return report
}
