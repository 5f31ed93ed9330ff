package models

import "time"

// User carries the tracking profile for one account. Identity and credentials
// live in the external auth service; this row only holds what the intelligence
// engine and the notifier need: the onboarding baseline and delivery targets.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	DisplayName     string     `json:"display_name"`
	TimeZone        string     `gorm:"not null;default:UTC" json:"time_zone"`
	CycleLength     int        `json:"cycle_length"`
	PeriodLength    int        `json:"period_length"`
	LastPeriodStart *time.Time `gorm:"type:date" json:"last_period_start,omitempty"`
	TelegramChatID  string     `json:"-"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
}
