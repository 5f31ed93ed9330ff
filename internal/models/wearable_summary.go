package models

import "time"

// WearableSummary is a normalized daily roll-up delivered by the wearable sync
// collaborator. Every metric is optional; nil pointers mark days the device did
// not report that signal.
type WearableSummary struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;uniqueIndex:uidx_wearable_user_date" json:"user_id"`
	Date                 time.Time `gorm:"type:date;not null;uniqueIndex:uidx_wearable_user_date" json:"date"`
	Steps                *int      `json:"steps,omitempty"`
	SleepHours           *float64  `json:"sleep_hours,omitempty"`
	RestingHeartRate     *float64  `json:"resting_heart_rate,omitempty"`
	HeartRateVariability *float64  `json:"heart_rate_variability,omitempty"`
	BodyTemperature      *float64  `json:"body_temperature,omitempty"`
	BloodOxygen          *float64  `json:"blood_oxygen,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}
