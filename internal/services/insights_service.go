package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLoadHistory      = errors.New("load cycle history failed")
	ErrLoadEntries      = errors.New("load daily entries failed")
	ErrLoadWearables    = errors.New("load wearable summaries failed")
	ErrUnknownCondition = errors.New("unknown condition")
	ErrInvalidDateRange = errors.New("invalid date range")
)

type ProfileReader interface {
	FindByID(userID uint) (models.User, error)
}

type CycleReader interface {
	ListByUser(userID uint) ([]models.CycleRecord, error)
}

type EntryReader interface {
	ListByUser(userID uint) ([]models.DailyEntry, error)
	ListByUserRange(userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyEntry, error)
}

type WearableReader interface {
	ListByUser(userID uint) ([]models.WearableSummary, error)
}

// InsightsService fetches one user's persisted history, freezes it into an
// engine snapshot and runs the intelligence computations over it. All I/O
// happens here, before the engine is invoked; the engine itself stays pure.
type InsightsService struct {
	users     ProfileReader
	cycles    CycleReader
	entries   EntryReader
	wearables WearableReader
	engine    *engine.Engine
}

func NewInsightsService(users ProfileReader, cycles CycleReader, entries EntryReader, wearables WearableReader, intelligence *engine.Engine) *InsightsService {
	return &InsightsService{
		users:     users,
		cycles:    cycles,
		entries:   entries,
		wearables: wearables,
		engine:    intelligence,
	}
}

// LoadSnapshot assembles the frozen history snapshot a report is computed
// from. Concurrent appends by the tracking layer are invisible to a report
// in flight because the snapshot copies everything up front.
func (service *InsightsService) LoadSnapshot(userID uint) (engine.Snapshot, models.User, error) {
	user, err := service.loadUser(userID)
	if err != nil {
		return engine.Snapshot{}, models.User{}, err
	}

	cycles, err := service.cycles.ListByUser(userID)
	if err != nil {
		return engine.Snapshot{}, models.User{}, fmt.Errorf("%w: %v", ErrLoadHistory, err)
	}
	entries, err := service.entries.ListByUser(userID)
	if err != nil {
		return engine.Snapshot{}, models.User{}, fmt.Errorf("%w: %v", ErrLoadEntries, err)
	}
	wearables, err := service.wearables.ListByUser(userID)
	if err != nil {
		return engine.Snapshot{}, models.User{}, fmt.Errorf("%w: %v", ErrLoadWearables, err)
	}

	snapshot := engine.BuildSnapshot(cycles, entries, wearables, baselineFor(user))
	return snapshot, user, nil
}

// GenerateReport builds the full forecast report for one user. A zero asOf
// means "today" in the user's timezone.
func (service *InsightsService) GenerateReport(userID uint, asOf time.Time) (engine.ForecastReport, error) {
	snapshot, user, err := service.LoadSnapshot(userID)
	if err != nil {
		return engine.ForecastReport{}, err
	}
	if asOf.IsZero() {
		asOf = time.Now().In(UserLocation(user))
	}
	return service.engine.BuildReport(snapshot, userID, asOf), nil
}

// AnalyzePatterns runs the pattern passes over entries restricted to an
// optional date range. Cycle records always load in full so anomaly
// detection keeps its long-term baseline.
func (service *InsightsService) AnalyzePatterns(userID uint, from *time.Time, to *time.Time) ([]engine.DetectedPattern, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidDateRange
	}

	user, err := service.loadUser(userID)
	if err != nil {
		return nil, err
	}

	location := UserLocation(user)
	var fromStart *time.Time
	var toEnd *time.Time
	if from != nil {
		start, _ := DayRange(*from, location)
		fromStart = &start
	}
	if to != nil {
		_, end := DayRange(*to, location)
		toEnd = &end
	}

	cycles, err := service.cycles.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadHistory, err)
	}
	entries, err := service.entries.ListByUserRange(userID, fromStart, toEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadEntries, err)
	}

	snapshot := engine.BuildSnapshot(cycles, entries, nil, baselineFor(user))
	return service.engine.DetectPatterns(snapshot), nil
}

// AssessConditionRisk screens one condition for one user. Unknown condition
// identifiers are contract violations and fail loudly.
func (service *InsightsService) AssessConditionRisk(userID uint, conditionID string, asOf time.Time) (engine.RiskAssessment, error) {
	snapshot, user, err := service.LoadSnapshot(userID)
	if err != nil {
		return engine.RiskAssessment{}, err
	}
	if asOf.IsZero() {
		asOf = time.Now().In(UserLocation(user))
	}

	assessment, known := service.engine.AssessCondition(snapshot, asOf, conditionID)
	if !known {
		return engine.RiskAssessment{}, fmt.Errorf("%w: %q", ErrUnknownCondition, conditionID)
	}
	return assessment, nil
}

func (service *InsightsService) loadUser(userID uint) (models.User, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrLoadHistory, err)
	}
	return user, nil
}

func baselineFor(user models.User) engine.Baseline {
	baseline := engine.Baseline{
		CycleLength:  user.CycleLength,
		PeriodLength: user.PeriodLength,
	}
	if user.LastPeriodStart != nil {
		baseline.LastPeriodStart = *user.LastPeriodStart
	}
	return baseline
}
