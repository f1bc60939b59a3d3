package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

const (
	defaultRestartDelay = 3 * time.Second
	auditPageSize       = 20
)

// dashboardService serves the sorting figures behind the admin and operator
// pages. The figures are fixed; belt state and settings live in memory.
type dashboardService struct {
	audit        ports.AuditRepository
	log          zerolog.Logger
	now          func() time.Time
	restartDelay time.Duration

	mu       sync.Mutex
	belt     domain.BeltState
	settings domain.SystemSettings
	reports  []domain.IssueReport
	restart  *time.Timer
}

// DashboardOption customizes a dashboard service.
type DashboardOption func(*dashboardService)

// WithRestartDelay sets how long a simulated belt restart takes.
func WithRestartDelay(d time.Duration) DashboardOption {
	return func(s *dashboardService) { s.restartDelay = d }
}

// NewDashboardService returns a DashboardService. audit may be nil, in which
// case the logs page carries no account activity.
func NewDashboardService(audit ports.AuditRepository, log zerolog.Logger, opts ...DashboardOption) ports.DashboardService {
	s := &dashboardService{
		audit:        audit,
		log:          log,
		now:          time.Now,
		restartDelay: defaultRestartDelay,
		belt: domain.BeltState{
			BeltID: "belt-1",
			Name:   "Camera 01 - Belt 1",
			Settings: domain.BeltSettings{
				BeltSpeed:     50,
				CameraQuality: "240p",
				CameraZoom:    1,
			},
		},
		settings: defaultSystemSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *dashboardService) Overview(_ context.Context) ports.AdminOverview {
	return ports.AdminOverview{
		Stats: domain.SortingStats{TotalItems: 1234, PlasticItems: 567, NonPlasticItems: 667, Accuracy: 92, Trend: 1},
		SortingData: []domain.SeriesPoint{
			{Label: "Jan", Value: 100},
			{Label: "Feb", Value: 120},
			{Label: "Mar", Value: 180},
			{Label: "Apr", Value: 190},
			{Label: "May", Value: 230},
			{Label: "Jun", Value: 280},
		},
		Alerts: []domain.Alert{
			{
				ID:        "1",
				Title:     "System failed in the middle of scanning",
				Message:   "Camera 03 - Belt 3 encountered an error during scanning process.",
				Timestamp: time.Date(2023, 7, 11, 8, 0, 0, 0, time.UTC),
				Type:      domain.AlertError,
				Source:    "Camera 03 - Belt 3",
			},
			{
				ID:        "2",
				Title:     "Maintenance Completed",
				Message:   "Camera 01 - Belt 1 maintenance has been completed successfully.",
				Timestamp: time.Date(2023, 6, 11, 16, 30, 0, 0, time.UTC),
				Type:      domain.AlertSuccess,
				Source:    "Camera 01 - Belt 1",
			},
			{
				ID:        "3",
				Title:     "Operator - Jane Disables",
				Message:   "Operator Jane has disabled the system for maintenance.",
				Timestamp: time.Date(2023, 6, 11, 14, 45, 0, 0, time.UTC),
				Type:      domain.AlertInfo,
				Source:    "Users",
			},
		},
	}
}

func (s *dashboardService) Analytics(_ context.Context) ports.AnalyticsView {
	return ports.AnalyticsView{
		Stats: domain.SortingStats{TotalItems: 1234, PlasticItems: 567, NonPlasticItems: 667, Accuracy: 92, Trend: 1},
		Accuracy: []domain.SeriesPoint{
			{Label: "Jan", Value: 88},
			{Label: "Feb", Value: 89},
			{Label: "Mar", Value: 92},
			{Label: "Apr", Value: 95},
			{Label: "May", Value: 97},
		},
		DailyPerformance: []domain.SeriesPoint{
			{Label: "5 PM", Value: 120},
			{Label: "12 PM", Value: 90},
			{Label: "8 PM", Value: 70},
			{Label: "9 PM", Value: 50},
			{Label: "2 PM", Value: 30},
			{Label: "3 PM", Value: 20},
		},
	}
}

var hourlyLog = []domain.LogEntry{
	{Date: "2023-10-01", Time: "08:00", Total: 150, Plastic: 100, NonPlastic: 50, Accuracy: "98%"},
	{Date: "2023-10-01", Time: "09:00", Total: 180, Plastic: 120, NonPlastic: 60, Accuracy: "97%"},
	{Date: "2023-10-01", Time: "10:00", Total: 170, Plastic: 110, NonPlastic: 60, Accuracy: "93%"},
	{Date: "2023-10-01", Time: "11:00", Total: 160, Plastic: 105, NonPlastic: 55, Accuracy: "92%"},
	{Date: "2023-10-01", Time: "12:00", Total: 190, Plastic: 115, NonPlastic: 75, Accuracy: "95%"},
	{Date: "2023-10-01", Time: "13:00", Total: 200, Plastic: 125, NonPlastic: 75, Accuracy: "96%"},
	{Date: "2023-10-01", Time: "14:00", Total: 210, Plastic: 130, NonPlastic: 80, Accuracy: "97%"},
	{Date: "2023-10-01", Time: "15:00", Total: 220, Plastic: 135, NonPlastic: 85, Accuracy: "98%"},
	{Date: "2023-10-01", Time: "16:00", Total: 230, Plastic: 140, NonPlastic: 90, Accuracy: "99%"},
}

// Logs returns the hourly report. Account activity comes from the audit
// log; a failing audit store leaves it empty.
func (s *dashboardService) Logs(ctx context.Context) ports.LogsView {
	view := ports.LogsView{
		Stats:   domain.SortingStats{TotalItems: 1200, PlasticItems: 800, NonPlasticItems: 400, Accuracy: 95, Trend: 2},
		Entries: append([]domain.LogEntry(nil), hourlyLog...),
		Audit:   []domain.AuditEntry{},
	}
	if s.audit == nil {
		return view
	}
	entries, err := s.audit.ListRecent(ctx, auditPageSize)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load account activity")
		return view
	}
	view.Audit = entries
	return view
}

// Settings returns the current system settings with the API key masked.
func (s *dashboardService) Settings(_ context.Context) domain.SystemSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	out.AIModel.APIKey = maskKey(out.AIModel.APIKey)
	return out
}

// SaveSettings validates and stores new settings. An empty API key keeps the
// stored one.
func (s *dashboardService) SaveSettings(_ context.Context, actor string, next domain.SystemSettings) (domain.SystemSettings, error) {
	if err := next.Validate(); err != nil {
		return domain.SystemSettings{}, err
	}

	s.mu.Lock()
	if next.AIModel.APIKey == "" || next.AIModel.APIKey == maskKey(s.settings.AIModel.APIKey) {
		next.AIModel.APIKey = s.settings.AIModel.APIKey
	}
	s.settings = next
	out := s.settings
	s.mu.Unlock()

	s.log.Info().Str("actor", actor).Str("system_name", next.General.SystemName).Msg("system settings saved")
	out.AIModel.APIKey = maskKey(out.AIModel.APIKey)
	return out, nil
}

var detectedItems = []domain.SortingResult{
	{ID: "72", ItemType: domain.ItemPlastic, Confidence: 0.98, ImageURL: "item1.jpg"},
	{ID: "71", ItemType: domain.ItemPlastic, Confidence: 0.96, ImageURL: "item2.jpg"},
	{ID: "70", ItemType: domain.ItemPlastic, Confidence: 0.95, ImageURL: "item3.jpg"},
	{ID: "69", ItemType: domain.ItemPlastic, Confidence: 0.93, ImageURL: "item4.jpg"},
	{ID: "68", ItemType: domain.ItemPlastic, Confidence: 0.91, ImageURL: "item5.jpg"},
	{ID: "67", ItemType: domain.ItemNonPlastic, Confidence: 0.97, ImageURL: "item6.jpg"},
	{ID: "66", ItemType: domain.ItemPlastic, Confidence: 0.92, ImageURL: "item7.jpg"},
	{ID: "65", ItemType: domain.ItemNonPlastic, Confidence: 0.94, ImageURL: "item8.jpg"},
	{ID: "64", ItemType: domain.ItemPlastic, Confidence: 0.90, ImageURL: "item9.jpg"},
}

var detectedOn = time.Date(2023, 10, 31, 0, 0, 0, 0, time.UTC)

// Operator returns the console for the belt. filter is "all", "plastic" or
// "non-plastic"; empty means all.
func (s *dashboardService) Operator(_ context.Context, filter string) (ports.OperatorView, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "all"
	}
	if filter != "all" && filter != string(domain.ItemPlastic) && filter != string(domain.ItemNonPlastic) {
		return ports.OperatorView{}, fmt.Errorf("%w: filter %q", domain.ErrInvalidInput, filter)
	}

	items := make([]domain.SortingResult, 0, len(detectedItems))
	for _, item := range detectedItems {
		if filter != "all" && string(item.ItemType) != filter {
			continue
		}
		item.Timestamp = detectedOn
		items = append(items, item)
	}

	s.mu.Lock()
	belt := s.belt
	s.mu.Unlock()

	return ports.OperatorView{Belt: belt, DetectedItems: items, Filter: filter}, nil
}

func (s *dashboardService) ToggleBelt(_ context.Context, actor string) domain.BeltState {
	s.mu.Lock()
	if s.restart != nil {
		s.restart.Stop()
		s.restart = nil
	}
	s.belt.Restarting = false
	s.belt.Running = !s.belt.Running
	belt := s.belt
	s.mu.Unlock()

	s.log.Info().Str("actor", actor).Bool("running", belt.Running).Msg("belt toggled")
	return belt
}

// RestartBelt stops the belt and starts it again after the restart delay.
// A second restart while one is pending restarts the delay.
func (s *dashboardService) RestartBelt(_ context.Context, actor string) domain.BeltState {
	s.mu.Lock()
	if s.restart != nil {
		s.restart.Stop()
	}
	s.belt.Running = false
	s.belt.Restarting = true
	var timer *time.Timer
	timer = time.AfterFunc(s.restartDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.restart != timer {
			return
		}
		s.restart = nil
		s.belt.Restarting = false
		s.belt.Running = true
		s.log.Info().Msg("belt restarted")
	})
	s.restart = timer
	belt := s.belt
	s.mu.Unlock()

	s.log.Info().Str("actor", actor).Msg("belt restarting")
	return belt
}

func (s *dashboardService) UpdateBeltSettings(_ context.Context, actor string, next domain.BeltSettings) (domain.BeltState, error) {
	if next.BeltSpeed < 0 || next.BeltSpeed > 100 || next.BeltSpeed%10 != 0 {
		return domain.BeltState{}, fmt.Errorf("%w: belt speed must be 0-100 in steps of 10", domain.ErrInvalidInput)
	}
	if _, err := domain.ParseCameraQuality(string(next.CameraQuality)); err != nil {
		return domain.BeltState{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if next.CameraZoom < 1 {
		return domain.BeltState{}, fmt.Errorf("%w: camera zoom must be at least 1", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	s.belt.Settings = next
	belt := s.belt
	s.mu.Unlock()

	s.log.Info().
		Str("actor", actor).
		Int("belt_speed", next.BeltSpeed).
		Str("camera_quality", string(next.CameraQuality)).
		Msg("belt settings updated")
	return belt, nil
}

func (s *dashboardService) ReportIssue(_ context.Context, actor, itemID string) (domain.IssueReport, error) {
	found := false
	for _, item := range detectedItems {
		if item.ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return domain.IssueReport{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, itemID)
	}

	report := domain.IssueReport{ItemID: itemID, ReportedBy: actor, ReportedAt: s.now().UTC()}
	s.mu.Lock()
	s.reports = append(s.reports, report)
	s.mu.Unlock()

	s.log.Warn().Str("item_id", itemID).Str("reported_by", actor).Msg("issue reported")
	return report, nil
}

func defaultSystemSettings() domain.SystemSettings {
	return domain.SystemSettings{
		General: domain.GeneralSettings{
			SystemName:           "Sortify AI Waste Sorting",
			InstallationLocation: "Main Facility - North Wing",
			InstallationDate:     "2023-01-15",
			MaintenanceSchedule:  "monthly",
			ErrorAlerts:          true,
			MaintenanceAlerts:    true,
			PerformanceAlerts:    true,
			ContactEmail:         "admin@sortify.com",
		},
		Conveyor: domain.ConveyorSettings{
			DefaultSpeed:    200,
			MinSpeed:        50,
			MaxSpeed:        400,
			Acceleration:    20,
			AutoSpeedAdjust: true,
			EmergencyStop:   true,
			BeltWidth:       600,
		},
		Camera: domain.CameraSettings{
			DefaultResolution: "720p",
			FrameRate:         30,
			CameraHeight:      100,
			CameraAngle:       45,
			AutoFocus:         true,
			AutoExposure:      true,
			SaveImages:        true,
			ImageStoragePath:  "/var/sortify/images/",
		},
		AIModel: domain.AIModelSettings{
			ModelVersion:         "v2.3.0",
			ConfidenceThreshold:  0.75,
			ProcessingMode:       "balanced",
			HardwareAcceleration: "gpu",
			AutoUpdate:           true,
			FeedbackLearning:     true,
			APIKey:               "sk_1234567890abcdef",
		},
	}
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
