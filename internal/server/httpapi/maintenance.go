package httpapi

import (
	"fmt"
	"time"
)

// noticeWindow is how long before a planned start the notice is shown.
const noticeWindow = 2 * time.Hour

// Maintenance describes a planned maintenance window. Manual forces the
// active state regardless of the window.
type Maintenance struct {
	Manual   bool
	Start    time.Time
	Duration time.Duration
}

// MaintenanceInfo is the banner state shown to users.
type MaintenanceInfo struct {
	Active        bool       `json:"active"`
	Upcoming      bool       `json:"upcoming"`
	Message       string     `json:"message,omitempty"`
	TimeRemaining string     `json:"time_remaining,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

// Info reports whether maintenance is running at now or starts within
// noticeWindow.
func (m Maintenance) Info(now time.Time) MaintenanceInfo {
	if m.Manual {
		return MaintenanceInfo{Active: true, Message: "Maintenance en cours", TimeRemaining: "Maintenance en cours"}
	}
	if m.Start.IsZero() {
		return MaintenanceInfo{}
	}

	until := m.Start.Sub(now)
	switch {
	case until <= 0 && now.Before(m.Start.Add(m.Duration)):
		return MaintenanceInfo{Active: true, Message: "Maintenance en cours", TimeRemaining: "Maintenance en cours"}
	case until > 0 && until <= noticeWindow:
		start := m.Start
		remaining := clock(until)
		return MaintenanceInfo{
			Upcoming:      true,
			Message:       "Maintenance prévue dans " + remaining,
			TimeRemaining: remaining,
			Timestamp:     &start,
		}
	default:
		return MaintenanceInfo{}
	}
}

// clock formats d as HH:MM:SS, truncating to whole seconds.
func clock(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
