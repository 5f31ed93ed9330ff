package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/models"
)

var (
	ErrInvalidMoodScore      = errors.New("invalid mood score")
	ErrInvalidFlowIntensity  = errors.New("invalid flow intensity")
	ErrInvalidWearableMetric = errors.New("invalid wearable metric")
	ErrPeriodStartOutOfOrder = errors.New("period start predates the current cycle")
	ErrEntrySaveFailed       = errors.New("save daily entry failed")
	ErrEntryDeleteFailed     = errors.New("delete daily entry failed")
	ErrWearableSaveFailed    = errors.New("save wearable summary failed")
	ErrCycleCloseOutFailed   = errors.New("cycle close-out failed")
	ErrSyncLastPeriodFailed  = errors.New("sync last period start failed")
)

// Period stats at close-out come from the leading run of flow-positive days;
// anything past two weeks is no longer one bleeding episode.
const maxObservablePeriodDays = 14

type DailyEntryInput struct {
	Symptoms      []string
	MoodScore     *int
	FlowIntensity *int
	Notes         string
}

type WearableSummaryInput struct {
	Steps                *int
	SleepHours           *float64
	RestingHeartRate     *float64
	HeartRateVariability *float64
	BodyTemperature      *float64
	BloodOxygen          *float64
}

type CycleStore interface {
	ListByUser(userID uint) ([]models.CycleRecord, error)
	FindLatestByUser(userID uint) (models.CycleRecord, bool, error)
	Create(record *models.CycleRecord) error
	Save(record *models.CycleRecord) error
}

type EntryStore interface {
	FindByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) (models.DailyEntry, bool, error)
	ListByUserRange(userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyEntry, error)
	Create(entry *models.DailyEntry) error
	Save(entry *models.DailyEntry) error
	DeleteByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) error
}

type WearableStore interface {
	FindByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) (models.WearableSummary, bool, error)
	Create(summary *models.WearableSummary) error
	Save(summary *models.WearableSummary) error
}

type BaselineStore interface {
	FindByID(userID uint) (models.User, error)
	UpdateLastPeriodStart(userID uint, start time.Time) error
}

// TrackingService is the write side of the history store: day-level logging,
// wearable ingestion and period starts. It appends cycle records and keeps
// the user's baseline anchor fresh; the engine only ever reads the result.
type TrackingService struct {
	cycles    CycleStore
	entries   EntryStore
	wearables WearableStore
	users     BaselineStore
}

func NewTrackingService(cycles CycleStore, entries EntryStore, wearables WearableStore, users BaselineStore) *TrackingService {
	return &TrackingService{
		cycles:    cycles,
		entries:   entries,
		wearables: wearables,
		users:     users,
	}
}

// UpsertDailyEntry writes one day's symptoms, mood, flow and notes, replacing
// any earlier entry for that day.
func (service *TrackingService) UpsertDailyEntry(userID uint, day time.Time, input DailyEntryInput, location *time.Location) (models.DailyEntry, error) {
	if input.MoodScore != nil && !models.IsValidMoodScore(*input.MoodScore) {
		return models.DailyEntry{}, fmt.Errorf("%w: %d", ErrInvalidMoodScore, *input.MoodScore)
	}
	if input.FlowIntensity != nil && !models.IsValidFlowIntensity(*input.FlowIntensity) {
		return models.DailyEntry{}, fmt.Errorf("%w: %d", ErrInvalidFlowIntensity, *input.FlowIntensity)
	}

	dayStart, dayEnd := DayRange(day, location)
	symptoms := NormalizeSymptoms(input.Symptoms)

	entry, found, err := service.entries.FindByUserAndDayRange(userID, dayStart, dayEnd)
	if err != nil {
		return models.DailyEntry{}, fmt.Errorf("%w: %v", ErrEntrySaveFailed, err)
	}

	if found {
		entry.Symptoms = symptoms
		entry.MoodScore = input.MoodScore
		entry.FlowIntensity = input.FlowIntensity
		entry.Notes = input.Notes
		if err := service.entries.Save(&entry); err != nil {
			return models.DailyEntry{}, fmt.Errorf("%w: %v", ErrEntrySaveFailed, err)
		}
		return entry, nil
	}

	entry = models.DailyEntry{
		UserID:        userID,
		Date:          dayStart,
		Symptoms:      symptoms,
		MoodScore:     input.MoodScore,
		FlowIntensity: input.FlowIntensity,
		Notes:         input.Notes,
	}
	if err := service.entries.Create(&entry); err != nil {
		return models.DailyEntry{}, fmt.Errorf("%w: %v", ErrEntrySaveFailed, err)
	}
	return entry, nil
}

// DeleteDailyEntry removes the entry for one day. Deleting a day that was
// never logged is a no-op.
func (service *TrackingService) DeleteDailyEntry(userID uint, day time.Time, location *time.Location) error {
	dayStart, dayEnd := DayRange(day, location)
	if err := service.entries.DeleteByUserAndDayRange(userID, dayStart, dayEnd); err != nil {
		return fmt.Errorf("%w: %v", ErrEntryDeleteFailed, err)
	}
	return nil
}

// UpsertWearableSummary stores one day's normalized wearable roll-up. Absent
// metrics stay nil; they are never defaulted to a plausible value.
func (service *TrackingService) UpsertWearableSummary(userID uint, day time.Time, input WearableSummaryInput, location *time.Location) (models.WearableSummary, error) {
	if err := validateWearableInput(input); err != nil {
		return models.WearableSummary{}, err
	}

	dayStart, dayEnd := DayRange(day, location)
	summary, found, err := service.wearables.FindByUserAndDayRange(userID, dayStart, dayEnd)
	if err != nil {
		return models.WearableSummary{}, fmt.Errorf("%w: %v", ErrWearableSaveFailed, err)
	}

	if found {
		summary.Steps = input.Steps
		summary.SleepHours = input.SleepHours
		summary.RestingHeartRate = input.RestingHeartRate
		summary.HeartRateVariability = input.HeartRateVariability
		summary.BodyTemperature = input.BodyTemperature
		summary.BloodOxygen = input.BloodOxygen
		if err := service.wearables.Save(&summary); err != nil {
			return models.WearableSummary{}, fmt.Errorf("%w: %v", ErrWearableSaveFailed, err)
		}
		return summary, nil
	}

	summary = models.WearableSummary{
		UserID:               userID,
		Date:                 dayStart,
		Steps:                input.Steps,
		SleepHours:           input.SleepHours,
		RestingHeartRate:     input.RestingHeartRate,
		HeartRateVariability: input.HeartRateVariability,
		BodyTemperature:      input.BodyTemperature,
		BloodOxygen:          input.BloodOxygen,
	}
	if err := service.wearables.Create(&summary); err != nil {
		return models.WearableSummary{}, fmt.Errorf("%w: %v", ErrWearableSaveFailed, err)
	}
	return summary, nil
}

// StartPeriod anchors a new cycle on the given day. The previous record is
// closed out with its true observed length plus period stats derived from the
// flow-positive entries after its start; a fresh in-progress record is then
// appended carrying the expected length, refined the same way when the next
// period closes it. Re-logging the current start day is a no-op.
func (service *TrackingService) StartPeriod(userID uint, day time.Time, location *time.Location) (models.CycleRecord, error) {
	day = DateAtLocation(day, location)

	latest, found, err := service.cycles.FindLatestByUser(userID)
	if err != nil {
		return models.CycleRecord{}, fmt.Errorf("%w: %v", ErrCycleCloseOutFailed, err)
	}

	if found {
		previousStart := DateAtLocation(latest.StartDate, location)
		observed := daysBetween(previousStart, day)
		if observed == 0 {
			return latest, nil
		}
		if observed < 0 {
			return models.CycleRecord{}, ErrPeriodStartOutOfOrder
		}

		latest.CycleLength = observed
		periodLength, averageFlow, err := service.observedPeriodStats(userID, previousStart, day, location)
		if err != nil {
			return models.CycleRecord{}, fmt.Errorf("%w: %v", ErrCycleCloseOutFailed, err)
		}
		if periodLength > 0 {
			latest.PeriodLength = &periodLength
			latest.AverageFlowIntensity = &averageFlow
		}
		if err := service.cycles.Save(&latest); err != nil {
			return models.CycleRecord{}, fmt.Errorf("%w: %v", ErrCycleCloseOutFailed, err)
		}
	}

	record := models.CycleRecord{
		UserID:      userID,
		StartDate:   day,
		CycleLength: service.expectedCycleLength(userID),
	}
	if err := service.cycles.Create(&record); err != nil {
		return models.CycleRecord{}, fmt.Errorf("%w: %v", ErrCycleCloseOutFailed, err)
	}

	if err := service.users.UpdateLastPeriodStart(userID, day); err != nil {
		return models.CycleRecord{}, fmt.Errorf("%w: %v", ErrSyncLastPeriodFailed, err)
	}
	return record, nil
}

// observedPeriodStats walks the consecutive flow-positive days from the cycle
// start and returns the run length with its mean intensity. A gap day ends
// the period.
func (service *TrackingService) observedPeriodStats(userID uint, start time.Time, end time.Time, location *time.Location) (int, float64, error) {
	entries, err := service.entries.ListByUserRange(userID, &start, &end)
	if err != nil {
		return 0, 0, err
	}

	flowByDay := make(map[string]int, len(entries))
	for _, entry := range entries {
		if entry.FlowIntensity == nil || *entry.FlowIntensity <= 0 {
			continue
		}
		flowByDay[DateAtLocation(entry.Date, location).Format("2006-01-02")] = *entry.FlowIntensity
	}

	length := 0
	total := 0
	for day := start; length < maxObservablePeriodDays; day = day.AddDate(0, 0, 1) {
		flow, logged := flowByDay[day.Format("2006-01-02")]
		if !logged {
			break
		}
		length++
		total += flow
	}
	if length == 0 {
		return 0, 0, nil
	}
	return length, float64(total) / float64(length), nil
}

// expectedCycleLength is the provisional length stamped on the in-progress
// record: the engine's current prediction over the closed history, falling
// back through the onboarding baseline to the bundled default.
func (service *TrackingService) expectedCycleLength(userID uint) int {
	user, err := service.users.FindByID(userID)
	if err != nil {
		user = models.User{}
	}
	records, err := service.cycles.ListByUser(userID)
	if err != nil {
		records = nil
	}

	baseline := engine.Baseline{CycleLength: user.CycleLength, PeriodLength: user.PeriodLength}
	snapshot := engine.BuildSnapshot(records, nil, nil, baseline)
	return engine.Predict(snapshot, engine.Options{}).PredictedCycleLength
}

func validateWearableInput(input WearableSummaryInput) error {
	if input.Steps != nil && *input.Steps < 0 {
		return fmt.Errorf("%w: steps", ErrInvalidWearableMetric)
	}
	if input.SleepHours != nil && (*input.SleepHours < 0 || *input.SleepHours > 24) {
		return fmt.Errorf("%w: sleep hours", ErrInvalidWearableMetric)
	}
	if input.RestingHeartRate != nil && (*input.RestingHeartRate < 20 || *input.RestingHeartRate > 250) {
		return fmt.Errorf("%w: resting heart rate", ErrInvalidWearableMetric)
	}
	if input.HeartRateVariability != nil && *input.HeartRateVariability <= 0 {
		return fmt.Errorf("%w: heart rate variability", ErrInvalidWearableMetric)
	}
	if input.BodyTemperature != nil && (*input.BodyTemperature < 30 || *input.BodyTemperature > 45) {
		return fmt.Errorf("%w: body temperature", ErrInvalidWearableMetric)
	}
	if input.BloodOxygen != nil && (*input.BloodOxygen < 50 || *input.BloodOxygen > 100) {
		return fmt.Errorf("%w: blood oxygen", ErrInvalidWearableMetric)
	}
	return nil
}
