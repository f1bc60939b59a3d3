package ports

import (
	"context"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// AdminOverview is the admin landing page.
type AdminOverview struct {
	Stats       domain.SortingStats  `json:"stats"`
	SortingData []domain.SeriesPoint `json:"sorting_data"`
	Alerts      []domain.Alert       `json:"alerts"`
}

// AnalyticsView is the admin analytics page.
type AnalyticsView struct {
	Stats            domain.SortingStats  `json:"stats"`
	Accuracy         []domain.SeriesPoint `json:"accuracy"`
	DailyPerformance []domain.SeriesPoint `json:"daily_performance"`
}

// LogsView is the admin logs and reports page.
type LogsView struct {
	Stats   domain.SortingStats `json:"stats"`
	Entries []domain.LogEntry   `json:"entries"`
	Audit   []domain.AuditEntry `json:"account_activity"`
}

// OperatorView is the operator console.
type OperatorView struct {
	Belt          domain.BeltState       `json:"belt"`
	DetectedItems []domain.SortingResult `json:"detected_items"`
	Filter        string                 `json:"filter"`
}

// DashboardService serves the presentation data behind the admin and
// operator pages. The sorting figures are static.
type DashboardService interface {
	Overview(ctx context.Context) AdminOverview
	Analytics(ctx context.Context) AnalyticsView
	Logs(ctx context.Context) LogsView
	Settings(ctx context.Context) domain.SystemSettings
	SaveSettings(ctx context.Context, actor string, s domain.SystemSettings) (domain.SystemSettings, error)

	Operator(ctx context.Context, filter string) (OperatorView, error)
	ToggleBelt(ctx context.Context, actor string) domain.BeltState
	RestartBelt(ctx context.Context, actor string) domain.BeltState
	UpdateBeltSettings(ctx context.Context, actor string, s domain.BeltSettings) (domain.BeltState, error)
	ReportIssue(ctx context.Context, actor, itemID string) (domain.IssueReport, error)
}
