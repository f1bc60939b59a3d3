package domain

import (
	"fmt"
	"time"
)

// ItemType is the classification assigned to an item on the belt.
type ItemType string

const (
	ItemPlastic    ItemType = "plastic"
	ItemNonPlastic ItemType = "non-plastic"
)

// SortingResult is a single detected item on the operator feed.
type SortingResult struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ItemType   ItemType  `json:"item_type"`
	Confidence float64   `json:"confidence"`
	ImageURL   string    `json:"image_url,omitempty"`
}

// SortingStats is the headline counter block shown on admin pages.
type SortingStats struct {
	TotalItems      int     `json:"total_items"`
	PlasticItems    int     `json:"plastic_items"`
	NonPlasticItems int     `json:"non_plastic_items"`
	Accuracy        float64 `json:"accuracy"`
	Trend           float64 `json:"trend,omitempty"`
}

// AlertType is the severity of an alert notification.
type AlertType string

const (
	AlertError   AlertType = "error"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
)

// Alert is a system alert displayed on the admin overview.
type Alert struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Type      AlertType `json:"type"`
	Source    string    `json:"source"`
	Read      bool      `json:"read"`
}

// SeriesPoint is one labelled value of a chart series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// LogEntry is one hourly row of the sorting log report.
type LogEntry struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Total      int    `json:"total"`
	Plastic    int    `json:"plastic"`
	NonPlastic int    `json:"non_plastic"`
	Accuracy   string `json:"accuracy"`
}

// CameraQuality is the operator-selectable camera resolution.
type CameraQuality string

var cameraQualities = []CameraQuality{"144p", "240p", "360p", "480p", "720p", "1080p"}

// ParseCameraQuality rejects resolutions the camera does not offer.
func ParseCameraQuality(s string) (CameraQuality, error) {
	for _, q := range cameraQualities {
		if string(q) == s {
			return q, nil
		}
	}
	return "", fmt.Errorf("%w: camera quality %q", ErrUnrecognizedValue, s)
}

// BeltSettings are the live controls on the operator console.
type BeltSettings struct {
	BeltSpeed     int           `json:"belt_speed"`
	CameraQuality CameraQuality `json:"camera_quality"`
	CameraZoom    float64       `json:"camera_zoom"`
}

// BeltState is the operator-visible state of one belt and its camera.
type BeltState struct {
	BeltID     string       `json:"belt_id"`
	Name       string       `json:"name"`
	Running    bool         `json:"running"`
	Restarting bool         `json:"restarting"`
	Settings   BeltSettings `json:"settings"`
}

// IssueReport is raised by an operator against a detected item.
type IssueReport struct {
	ItemID     string    `json:"item_id"`
	ReportedBy string    `json:"reported_by"`
	ReportedAt time.Time `json:"reported_at"`
}

// SystemSettings is the admin settings page, grouped by tab.
type SystemSettings struct {
	General  GeneralSettings  `json:"general"`
	Conveyor ConveyorSettings `json:"conveyor"`
	Camera   CameraSettings   `json:"camera"`
	AIModel  AIModelSettings  `json:"ai_model"`
}

type GeneralSettings struct {
	SystemName           string `json:"system_name"`
	InstallationLocation string `json:"installation_location"`
	InstallationDate     string `json:"installation_date"`
	MaintenanceSchedule  string `json:"maintenance_schedule"`
	ErrorAlerts          bool   `json:"error_alerts"`
	MaintenanceAlerts    bool   `json:"maintenance_alerts"`
	PerformanceAlerts    bool   `json:"performance_alerts"`
	ContactEmail         string `json:"contact_email"`
}

type ConveyorSettings struct {
	DefaultSpeed    int  `json:"default_speed"`
	MinSpeed        int  `json:"min_speed"`
	MaxSpeed        int  `json:"max_speed"`
	Acceleration    int  `json:"acceleration"`
	AutoSpeedAdjust bool `json:"auto_speed_adjust"`
	EmergencyStop   bool `json:"emergency_stop"`
	BeltWidth       int  `json:"belt_width"`
}

type CameraSettings struct {
	DefaultResolution CameraQuality `json:"default_resolution"`
	FrameRate         int           `json:"frame_rate"`
	CameraHeight      int           `json:"camera_height"`
	CameraAngle       int           `json:"camera_angle"`
	AutoFocus         bool          `json:"auto_focus"`
	AutoExposure      bool          `json:"auto_exposure"`
	SaveImages        bool          `json:"save_images"`
	ImageStoragePath  string        `json:"image_storage_path"`
}

type AIModelSettings struct {
	ModelVersion         string  `json:"model_version"`
	ConfidenceThreshold  float64 `json:"confidence_threshold"`
	ProcessingMode       string  `json:"processing_mode"`
	HardwareAcceleration string  `json:"hardware_acceleration"`
	AutoUpdate           bool    `json:"auto_update"`
	FeedbackLearning     bool    `json:"feedback_learning"`
	DebugMode            bool    `json:"debug_mode"`
	APIKey               string  `json:"api_key,omitempty"`
}

// Validate checks the cross-field rules the settings form cannot express.
func (s SystemSettings) Validate() error {
	c := s.Conveyor
	if c.MinSpeed > c.MaxSpeed {
		return fmt.Errorf("%w: minimum speed exceeds maximum speed", ErrInvalidInput)
	}
	if c.DefaultSpeed < c.MinSpeed || c.DefaultSpeed > c.MaxSpeed {
		return fmt.Errorf("%w: default speed outside [%d, %d]", ErrInvalidInput, c.MinSpeed, c.MaxSpeed)
	}
	if _, err := ParseCameraQuality(string(s.Camera.DefaultResolution)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.AIModel.ConfidenceThreshold < 0 || s.AIModel.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold must be within [0, 1]", ErrInvalidInput)
	}
	return nil
}
