package models

import "time"

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5

	MinTrackableCycleLength = 15
	MaxTrackableCycleLength = 90

	// Flow intensity is logged on a 0 (none) to 3 (heavy) scale.
	MaxFlowIntensity = 3
)

// CycleRecord is one tracked menstrual cycle. Records are appended by the
// logging subsystem when a period is closed out and are never edited afterwards;
// the latest record is the cycle currently in progress.
type CycleRecord struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;index:idx_cycle_user_start" json:"user_id"`
	StartDate            time.Time `gorm:"type:date;not null;index:idx_cycle_user_start" json:"start_date"`
	CycleLength          int       `gorm:"not null" json:"cycle_length"`
	PeriodLength         *int      `json:"period_length,omitempty"`
	AverageFlowIntensity *float64  `json:"average_flow_intensity,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Valid reports whether the record satisfies the stored-data invariants:
// a positive cycle length and, when present, a period no longer than the cycle.
func (record CycleRecord) Valid() bool {
	if record.CycleLength < 1 {
		return false
	}
	if record.PeriodLength != nil && *record.PeriodLength > record.CycleLength {
		return false
	}
	return true
}

func IsValidBaselineCycleLength(value int) bool {
	return value >= MinTrackableCycleLength && value <= MaxTrackableCycleLength
}

func IsValidBaselinePeriodLength(value int) bool {
	return value >= 1 && value <= 14
}
