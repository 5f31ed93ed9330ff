package services

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/models"
)

type stubProfileReader struct {
	user models.User
	err  error
}

func (stub *stubProfileReader) FindByID(uint) (models.User, error) {
	if stub.err != nil {
		return models.User{}, stub.err
	}
	return stub.user, nil
}

type stubCycleReader struct {
	records []models.CycleRecord
	err     error
}

func (stub *stubCycleReader) ListByUser(uint) ([]models.CycleRecord, error) {
	if stub.err != nil {
		return nil, stub.err
	}
	result := make([]models.CycleRecord, len(stub.records))
	copy(result, stub.records)
	return result, nil
}

type stubEntryReader struct {
	entries []models.DailyEntry
	err     error

	rangeFrom *time.Time
	rangeTo   *time.Time
}

func (stub *stubEntryReader) ListByUser(uint) ([]models.DailyEntry, error) {
	if stub.err != nil {
		return nil, stub.err
	}
	result := make([]models.DailyEntry, len(stub.entries))
	copy(result, stub.entries)
	return result, nil
}

func (stub *stubEntryReader) ListByUserRange(_ uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyEntry, error) {
	stub.rangeFrom = fromStart
	stub.rangeTo = toEnd
	return stub.ListByUser(0)
}

type stubWearableReader struct {
	summaries []models.WearableSummary
	err       error
}

func (stub *stubWearableReader) ListByUser(uint) ([]models.WearableSummary, error) {
	if stub.err != nil {
		return nil, stub.err
	}
	result := make([]models.WearableSummary, len(stub.summaries))
	copy(result, stub.summaries)
	return result, nil
}

func TestGenerateReportComposesFromPersistedHistory(t *testing.T) {
	service := NewInsightsService(
		&stubProfileReader{user: models.User{ID: 42, TimeZone: "UTC", CycleLength: 28, PeriodLength: 5}},
		&stubCycleReader{records: makeRecords(t, "2025-01-01", 28, 28, 28, 28, 28, 28)},
		&stubEntryReader{},
		&stubWearableReader{},
		quietEngine(),
	)

	report, err := service.GenerateReport(42, mustParseServiceDay(t, "2025-05-28"))
	if err != nil {
		t.Fatalf("GenerateReport() unexpected error: %v", err)
	}
	if report.UserID != 42 {
		t.Fatalf("expected user 42, got %d", report.UserID)
	}
	if report.Prediction.PredictedCycleLength != 28 {
		t.Fatalf("expected predicted length 28, got %d", report.Prediction.PredictedCycleLength)
	}
	if report.Prediction.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", report.Prediction.Confidence)
	}
	if report.CurrentCycleDay != 8 {
		t.Fatalf("expected cycle day 8, got %d", report.CurrentCycleDay)
	}
	if report.CurrentPhase != engine.PhaseFollicular {
		t.Fatalf("expected follicular phase, got %s", report.CurrentPhase)
	}
	if report.OverallHealthScore != 100 {
		t.Fatalf("expected health score 100, got %v", report.OverallHealthScore)
	}
}

func TestGenerateReportUnknownUser(t *testing.T) {
	service := NewInsightsService(
		&stubProfileReader{err: gorm.ErrRecordNotFound},
		&stubCycleReader{},
		&stubEntryReader{},
		&stubWearableReader{},
		quietEngine(),
	)

	if _, err := service.GenerateReport(7, mustParseServiceDay(t, "2025-05-28")); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLoadSnapshotPropagatesReadFailures(t *testing.T) {
	service := NewInsightsService(
		&stubProfileReader{user: models.User{ID: 1}},
		&stubCycleReader{err: errors.New("disk gone")},
		&stubEntryReader{},
		&stubWearableReader{},
		quietEngine(),
	)

	if _, _, err := service.LoadSnapshot(1); !errors.Is(err, ErrLoadHistory) {
		t.Fatalf("expected ErrLoadHistory, got %v", err)
	}
}

func TestAnalyzePatternsRejectsInvertedRange(t *testing.T) {
	service := NewInsightsService(
		&stubProfileReader{user: models.User{ID: 1}},
		&stubCycleReader{},
		&stubEntryReader{},
		&stubWearableReader{},
		quietEngine(),
	)

	from := mustParseServiceDay(t, "2025-04-01")
	to := mustParseServiceDay(t, "2025-03-01")
	if _, err := service.AnalyzePatterns(1, &from, &to); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestAnalyzePatternsQueriesHalfOpenDayRange(t *testing.T) {
	entryReader := &stubEntryReader{}
	service := NewInsightsService(
		&stubProfileReader{user: models.User{ID: 1, TimeZone: "UTC"}},
		&stubCycleReader{},
		entryReader,
		&stubWearableReader{},
		quietEngine(),
	)

	from := mustParseServiceDay(t, "2025-03-01")
	to := mustParseServiceDay(t, "2025-03-31")
	if _, err := service.AnalyzePatterns(1, &from, &to); err != nil {
		t.Fatalf("AnalyzePatterns() unexpected error: %v", err)
	}

	if entryReader.rangeFrom == nil || !entryReader.rangeFrom.Equal(mustParseServiceDay(t, "2025-03-01")) {
		t.Fatalf("expected range start 2025-03-01, got %v", entryReader.rangeFrom)
	}
	if entryReader.rangeTo == nil || !entryReader.rangeTo.Equal(mustParseServiceDay(t, "2025-04-01")) {
		t.Fatalf("expected exclusive range end 2025-04-01, got %v", entryReader.rangeTo)
	}
}

func TestAnalyzePatternsSurfacesWeekdayPattern(t *testing.T) {
	entries := make([]models.DailyEntry, 0, 12)
	for _, day := range []string{"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27"} {
		entries = append(entries, makeMoodEntry(t, day, 2))
	}
	for _, day := range []string{"2025-01-08", "2025-01-10", "2025-01-15", "2025-01-17", "2025-01-22", "2025-01-24", "2025-01-29", "2025-01-31"} {
		entries = append(entries, makeMoodEntry(t, day, 7))
	}

	service := NewInsightsService(
		&stubProfileReader{user: models.User{ID: 1, TimeZone: "UTC", CycleLength: 28, PeriodLength: 5}},
		&stubCycleReader{},
		&stubEntryReader{entries: entries},
		&stubWearableReader{},
		quietEngine(),
	)

	patterns, err := service.AnalyzePatterns(1, nil, nil)
	if err != nil {
		t.Fatalf("AnalyzePatterns() unexpected error: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected one pattern, got %d: %#v", len(patterns), patterns)
	}
	if patterns[0].PatternID != "weekday-monday-low" {
		t.Fatalf("expected weekday-monday-low, got %s", patterns[0].PatternID)
	}
}

func TestAssessConditionRiskScreensKnownCondition(t *testing.T) {
	service := NewInsightsService(
		&stubProfileReader{user: models.User{ID: 9, TimeZone: "UTC"}},
		&stubCycleReader{records: makeRecords(t, "2025-01-01", 21, 45, 22)},
		&stubEntryReader{},
		&stubWearableReader{},
		quietEngine(),
	)

	assessment, err := service.AssessConditionRisk(9, engine.ConditionIrregularity, mustParseServiceDay(t, "2025-04-01"))
	if err != nil {
		t.Fatalf("AssessConditionRisk() unexpected error: %v", err)
	}
	if assessment.RiskScore < 0.5 {
		t.Fatalf("expected risk >= 0.5 for volatile history, got %v", assessment.RiskScore)
	}
	if !assessment.RecommendsConsultation {
		t.Fatalf("expected consultation recommendation")
	}
}

func TestAssessConditionRiskUnknownCondition(t *testing.T) {
	service := NewInsightsService(
		&stubProfileReader{user: models.User{ID: 9}},
		&stubCycleReader{},
		&stubEntryReader{},
		&stubWearableReader{},
		quietEngine(),
	)

	if _, err := service.AssessConditionRisk(9, "astrology", mustParseServiceDay(t, "2025-04-01")); !errors.Is(err, ErrUnknownCondition) {
		t.Fatalf("expected ErrUnknownCondition, got %v", err)
	}
}

func quietEngine() *engine.Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return engine.New(logger, engine.Options{})
}

func makeRecords(t *testing.T, firstStart string, lengths ...int) []models.CycleRecord {
	t.Helper()
	start := mustParseServiceDay(t, firstStart)
	records := make([]models.CycleRecord, 0, len(lengths))
	for index, length := range lengths {
		records = append(records, models.CycleRecord{
			ID:          uint(index + 1),
			UserID:      1,
			StartDate:   start,
			CycleLength: length,
		})
		start = start.AddDate(0, 0, length)
	}
	return records
}

func makeMoodEntry(t *testing.T, day string, mood int) models.DailyEntry {
	t.Helper()
	return models.DailyEntry{Date: mustParseServiceDay(t, day), MoodScore: &mood}
}

func mustParseServiceDay(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		t.Fatalf("parse day %q: %v", raw, err)
	}
	return parsed
}
