package models

import "time"

const (
	MinMoodScore = 1
	MaxMoodScore = 10
)

// DailyEntry is one day of logged symptoms, mood and flow. A missing MoodScore
// means the user logged symptoms without rating their mood; the engine treats
// that as an absent signal, never as a neutral value. FlowIntensity uses the
// 0..3 scale from MaxFlowIntensity; nil means no bleeding was logged that day.
type DailyEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:uidx_entry_user_date" json:"user_id"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:uidx_entry_user_date" json:"date"`
	Symptoms      []string  `gorm:"serializer:json" json:"symptoms"`
	MoodScore     *int      `json:"mood_score,omitempty"`
	FlowIntensity *int      `json:"flow_intensity,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func IsValidMoodScore(value int) bool {
	return value >= MinMoodScore && value <= MaxMoodScore
}

func IsValidFlowIntensity(value int) bool {
	return value >= 0 && value <= MaxFlowIntensity
}
