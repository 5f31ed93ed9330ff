package services

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/ronospace/flowiq/internal/models"
)

type memoryCycleStore struct {
	records []models.CycleRecord
	nextID  uint
	saveErr error
}

func (store *memoryCycleStore) ListByUser(userID uint) ([]models.CycleRecord, error) {
	result := make([]models.CycleRecord, 0, len(store.records))
	for _, record := range store.records {
		if record.UserID == userID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (store *memoryCycleStore) FindLatestByUser(userID uint) (models.CycleRecord, bool, error) {
	latest := models.CycleRecord{}
	found := false
	for _, record := range store.records {
		if record.UserID != userID {
			continue
		}
		if !found || record.StartDate.After(latest.StartDate) {
			latest = record
			found = true
		}
	}
	return latest, found, nil
}

func (store *memoryCycleStore) Create(record *models.CycleRecord) error {
	store.nextID++
	record.ID = store.nextID
	store.records = append(store.records, *record)
	return nil
}

func (store *memoryCycleStore) Save(record *models.CycleRecord) error {
	if store.saveErr != nil {
		return store.saveErr
	}
	for index := range store.records {
		if store.records[index].ID == record.ID {
			store.records[index] = *record
			return nil
		}
	}
	store.records = append(store.records, *record)
	return nil
}

type memoryEntryStore struct {
	entries   []models.DailyEntry
	nextID    uint
	created   int
	saved     int
	deleteErr error
}

func (store *memoryEntryStore) FindByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) (models.DailyEntry, bool, error) {
	for _, entry := range store.entries {
		if entry.UserID == userID && !entry.Date.Before(dayStart) && entry.Date.Before(dayEnd) {
			return entry, true, nil
		}
	}
	return models.DailyEntry{}, false, nil
}

func (store *memoryEntryStore) ListByUserRange(userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyEntry, error) {
	result := make([]models.DailyEntry, 0, len(store.entries))
	for _, entry := range store.entries {
		if entry.UserID != userID {
			continue
		}
		if fromStart != nil && entry.Date.Before(*fromStart) {
			continue
		}
		if toEnd != nil && !entry.Date.Before(*toEnd) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (store *memoryEntryStore) Create(entry *models.DailyEntry) error {
	store.nextID++
	entry.ID = store.nextID
	store.entries = append(store.entries, *entry)
	store.created++
	return nil
}

func (store *memoryEntryStore) Save(entry *models.DailyEntry) error {
	store.saved++
	for index := range store.entries {
		if store.entries[index].ID == entry.ID {
			store.entries[index] = *entry
			return nil
		}
	}
	store.entries = append(store.entries, *entry)
	return nil
}

func (store *memoryEntryStore) DeleteByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) error {
	if store.deleteErr != nil {
		return store.deleteErr
	}
	kept := make([]models.DailyEntry, 0, len(store.entries))
	for _, entry := range store.entries {
		if entry.UserID == userID && !entry.Date.Before(dayStart) && entry.Date.Before(dayEnd) {
			continue
		}
		kept = append(kept, entry)
	}
	store.entries = kept
	return nil
}

type memoryWearableStore struct {
	summaries []models.WearableSummary
	nextID    uint
	saved     int
}

func (store *memoryWearableStore) FindByUserAndDayRange(userID uint, dayStart time.Time, dayEnd time.Time) (models.WearableSummary, bool, error) {
	for _, summary := range store.summaries {
		if summary.UserID == userID && !summary.Date.Before(dayStart) && summary.Date.Before(dayEnd) {
			return summary, true, nil
		}
	}
	return models.WearableSummary{}, false, nil
}

func (store *memoryWearableStore) Create(summary *models.WearableSummary) error {
	store.nextID++
	summary.ID = store.nextID
	store.summaries = append(store.summaries, *summary)
	return nil
}

func (store *memoryWearableStore) Save(summary *models.WearableSummary) error {
	store.saved++
	for index := range store.summaries {
		if store.summaries[index].ID == summary.ID {
			store.summaries[index] = *summary
			return nil
		}
	}
	store.summaries = append(store.summaries, *summary)
	return nil
}

type memoryBaselineStore struct {
	user            models.User
	findErr         error
	lastPeriodStart *time.Time
}

func (store *memoryBaselineStore) FindByID(uint) (models.User, error) {
	if store.findErr != nil {
		return models.User{}, store.findErr
	}
	return store.user, nil
}

func (store *memoryBaselineStore) UpdateLastPeriodStart(_ uint, start time.Time) error {
	store.lastPeriodStart = &start
	return nil
}

func TestUpsertDailyEntryCreatesNormalizedEntry(t *testing.T) {
	entries := &memoryEntryStore{}
	service := NewTrackingService(&memoryCycleStore{}, entries, &memoryWearableStore{}, &memoryBaselineStore{})

	mood := 6
	flow := 2
	entry, err := service.UpsertDailyEntry(3, mustParseServiceDay(t, "2025-03-10"), DailyEntryInput{
		Symptoms:      []string{" Cramps ", "cramps", "Headache"},
		MoodScore:     &mood,
		FlowIntensity: &flow,
		Notes:         "rough day",
	}, time.UTC)
	if err != nil {
		t.Fatalf("UpsertDailyEntry() unexpected error: %v", err)
	}

	if entry.UserID != 3 {
		t.Fatalf("expected user 3, got %d", entry.UserID)
	}
	if !entry.Date.Equal(mustParseServiceDay(t, "2025-03-10")) {
		t.Fatalf("expected day-start date, got %v", entry.Date)
	}
	if !reflect.DeepEqual(entry.Symptoms, []string{"cramps", "headache"}) {
		t.Fatalf("expected normalized symptoms, got %v", entry.Symptoms)
	}
	if entry.MoodScore == nil || *entry.MoodScore != 6 {
		t.Fatalf("expected mood 6, got %v", entry.MoodScore)
	}
	if entries.created != 1 || entries.saved != 0 {
		t.Fatalf("expected one create and no save, got %d creates and %d saves", entries.created, entries.saved)
	}
}

func TestUpsertDailyEntryReplacesExistingDay(t *testing.T) {
	oldMood := 2
	entries := &memoryEntryStore{
		entries: []models.DailyEntry{{
			ID:        5,
			UserID:    3,
			Date:      mustParseServiceDay(t, "2025-03-10"),
			Symptoms:  []string{"bloating"},
			MoodScore: &oldMood,
		}},
		nextID: 5,
	}
	service := NewTrackingService(&memoryCycleStore{}, entries, &memoryWearableStore{}, &memoryBaselineStore{})

	mood := 8
	entry, err := service.UpsertDailyEntry(3, mustParseServiceDay(t, "2025-03-10"), DailyEntryInput{
		Symptoms:  []string{"Fatigue"},
		MoodScore: &mood,
	}, time.UTC)
	if err != nil {
		t.Fatalf("UpsertDailyEntry() unexpected error: %v", err)
	}

	if entry.ID != 5 {
		t.Fatalf("expected existing entry 5 to be updated, got id %d", entry.ID)
	}
	if !reflect.DeepEqual(entry.Symptoms, []string{"fatigue"}) {
		t.Fatalf("expected replaced symptoms, got %v", entry.Symptoms)
	}
	if entry.FlowIntensity != nil {
		t.Fatalf("expected flow cleared on replace, got %v", *entry.FlowIntensity)
	}
	if len(entries.entries) != 1 || entries.created != 0 || entries.saved != 1 {
		t.Fatalf("expected one updated row, got %d rows, %d creates, %d saves", len(entries.entries), entries.created, entries.saved)
	}
}

func TestUpsertDailyEntryRejectsOutOfRangeScores(t *testing.T) {
	service := NewTrackingService(&memoryCycleStore{}, &memoryEntryStore{}, &memoryWearableStore{}, &memoryBaselineStore{})
	day := mustParseServiceDay(t, "2025-03-10")

	cases := []struct {
		name  string
		input DailyEntryInput
		want  error
	}{
		{"mood above scale", DailyEntryInput{MoodScore: intPointer(11)}, ErrInvalidMoodScore},
		{"mood below scale", DailyEntryInput{MoodScore: intPointer(0)}, ErrInvalidMoodScore},
		{"flow above scale", DailyEntryInput{FlowIntensity: intPointer(4)}, ErrInvalidFlowIntensity},
		{"flow negative", DailyEntryInput{FlowIntensity: intPointer(-1)}, ErrInvalidFlowIntensity},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := service.UpsertDailyEntry(3, day, testCase.input, time.UTC); !errors.Is(err, testCase.want) {
				t.Fatalf("expected %v, got %v", testCase.want, err)
			}
		})
	}
}

func TestDeleteDailyEntryRemovesDay(t *testing.T) {
	entries := &memoryEntryStore{
		entries: []models.DailyEntry{
			{ID: 1, UserID: 3, Date: mustParseServiceDay(t, "2025-03-10")},
			{ID: 2, UserID: 3, Date: mustParseServiceDay(t, "2025-03-11")},
		},
		nextID: 2,
	}
	service := NewTrackingService(&memoryCycleStore{}, entries, &memoryWearableStore{}, &memoryBaselineStore{})

	if err := service.DeleteDailyEntry(3, mustParseServiceDay(t, "2025-03-10"), time.UTC); err != nil {
		t.Fatalf("DeleteDailyEntry() unexpected error: %v", err)
	}
	if len(entries.entries) != 1 || entries.entries[0].ID != 2 {
		t.Fatalf("expected only the other day to remain, got %v", entries.entries)
	}
}

func TestDeleteDailyEntryWrapsStoreFailure(t *testing.T) {
	entries := &memoryEntryStore{deleteErr: errors.New("database locked")}
	service := NewTrackingService(&memoryCycleStore{}, entries, &memoryWearableStore{}, &memoryBaselineStore{})

	if err := service.DeleteDailyEntry(3, mustParseServiceDay(t, "2025-03-10"), time.UTC); !errors.Is(err, ErrEntryDeleteFailed) {
		t.Fatalf("expected ErrEntryDeleteFailed, got %v", err)
	}
}

func TestUpsertWearableSummaryCreatesDayRecord(t *testing.T) {
	wearables := &memoryWearableStore{}
	service := NewTrackingService(&memoryCycleStore{}, &memoryEntryStore{}, wearables, &memoryBaselineStore{})

	steps := 8000
	sleep := 7.5
	summary, err := service.UpsertWearableSummary(3, mustParseServiceDay(t, "2025-03-10"), WearableSummaryInput{
		Steps:      &steps,
		SleepHours: &sleep,
	}, time.UTC)
	if err != nil {
		t.Fatalf("UpsertWearableSummary() unexpected error: %v", err)
	}

	if !summary.Date.Equal(mustParseServiceDay(t, "2025-03-10")) {
		t.Fatalf("expected day-start date, got %v", summary.Date)
	}
	if summary.Steps == nil || *summary.Steps != 8000 {
		t.Fatalf("expected 8000 steps, got %v", summary.Steps)
	}
	if summary.RestingHeartRate != nil {
		t.Fatalf("expected absent heart rate to stay nil, got %v", *summary.RestingHeartRate)
	}
	if len(wearables.summaries) != 1 {
		t.Fatalf("expected one stored summary, got %d", len(wearables.summaries))
	}
}

func TestUpsertWearableSummaryValidatesMetrics(t *testing.T) {
	service := NewTrackingService(&memoryCycleStore{}, &memoryEntryStore{}, &memoryWearableStore{}, &memoryBaselineStore{})
	day := mustParseServiceDay(t, "2025-03-10")

	cases := []struct {
		name  string
		input WearableSummaryInput
	}{
		{"negative steps", WearableSummaryInput{Steps: intPointer(-1)}},
		{"sleep beyond a day", WearableSummaryInput{SleepHours: floatPointer(25)}},
		{"heart rate too low", WearableSummaryInput{RestingHeartRate: floatPointer(10)}},
		{"zero variability", WearableSummaryInput{HeartRateVariability: floatPointer(0)}},
		{"temperature out of band", WearableSummaryInput{BodyTemperature: floatPointer(50)}},
		{"oxygen out of band", WearableSummaryInput{BloodOxygen: floatPointer(30)}},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := service.UpsertWearableSummary(3, day, testCase.input, time.UTC); !errors.Is(err, ErrInvalidWearableMetric) {
				t.Fatalf("expected ErrInvalidWearableMetric, got %v", err)
			}
		})
	}
}

func TestStartPeriodFirstEverUsesBaseline(t *testing.T) {
	cycles := &memoryCycleStore{}
	users := &memoryBaselineStore{user: models.User{ID: 7, CycleLength: 30, PeriodLength: 5}}
	service := NewTrackingService(cycles, &memoryEntryStore{}, &memoryWearableStore{}, users)

	record, err := service.StartPeriod(7, mustParseServiceDay(t, "2025-01-01"), time.UTC)
	if err != nil {
		t.Fatalf("StartPeriod() unexpected error: %v", err)
	}

	if !record.StartDate.Equal(mustParseServiceDay(t, "2025-01-01")) {
		t.Fatalf("expected start 2025-01-01, got %v", record.StartDate)
	}
	if record.CycleLength != 30 {
		t.Fatalf("expected baseline length 30 on the first record, got %d", record.CycleLength)
	}
	if len(cycles.records) != 1 {
		t.Fatalf("expected one record, got %d", len(cycles.records))
	}
	if users.lastPeriodStart == nil || !users.lastPeriodStart.Equal(record.StartDate) {
		t.Fatalf("expected baseline anchor synced to %v, got %v", record.StartDate, users.lastPeriodStart)
	}
}

func TestStartPeriodClosesOutPreviousCycle(t *testing.T) {
	cycles := &memoryCycleStore{
		records: []models.CycleRecord{{
			ID:          1,
			UserID:      7,
			StartDate:   mustParseServiceDay(t, "2025-01-01"),
			CycleLength: 28,
		}},
		nextID: 1,
	}
	entries := &memoryEntryStore{nextID: 10}
	flows := []int{2, 3, 2, 1, 1}
	for offset, flow := range flows {
		value := flow
		entries.entries = append(entries.entries, models.DailyEntry{
			ID:            uint(offset + 1),
			UserID:        7,
			Date:          mustParseServiceDay(t, "2025-01-01").AddDate(0, 0, offset),
			FlowIntensity: &value,
		})
	}
	mood := 5
	entries.entries = append(entries.entries, models.DailyEntry{
		ID:        6,
		UserID:    7,
		Date:      mustParseServiceDay(t, "2025-01-06"),
		MoodScore: &mood,
	})

	users := &memoryBaselineStore{user: models.User{ID: 7, CycleLength: 28, PeriodLength: 5}}
	service := NewTrackingService(cycles, entries, &memoryWearableStore{}, users)

	record, err := service.StartPeriod(7, mustParseServiceDay(t, "2025-01-30"), time.UTC)
	if err != nil {
		t.Fatalf("StartPeriod() unexpected error: %v", err)
	}

	closed := cycles.records[0]
	if closed.CycleLength != 29 {
		t.Fatalf("expected closed cycle length 29, got %d", closed.CycleLength)
	}
	if closed.PeriodLength == nil || *closed.PeriodLength != 5 {
		t.Fatalf("expected observed period length 5, got %v", closed.PeriodLength)
	}
	if closed.AverageFlowIntensity == nil || math.Abs(*closed.AverageFlowIntensity-1.8) > 1e-9 {
		t.Fatalf("expected mean flow 1.8, got %v", closed.AverageFlowIntensity)
	}

	if !record.StartDate.Equal(mustParseServiceDay(t, "2025-01-30")) {
		t.Fatalf("expected new start 2025-01-30, got %v", record.StartDate)
	}
	if record.CycleLength != 29 {
		t.Fatalf("expected provisional length 29 from the closed history, got %d", record.CycleLength)
	}
	if len(cycles.records) != 2 {
		t.Fatalf("expected two records, got %d", len(cycles.records))
	}
	if users.lastPeriodStart == nil || !users.lastPeriodStart.Equal(record.StartDate) {
		t.Fatalf("expected baseline anchor synced to %v, got %v", record.StartDate, users.lastPeriodStart)
	}
}

func TestStartPeriodSameDayIsIdempotent(t *testing.T) {
	cycles := &memoryCycleStore{
		records: []models.CycleRecord{{
			ID:          1,
			UserID:      7,
			StartDate:   mustParseServiceDay(t, "2025-02-01"),
			CycleLength: 28,
		}},
		nextID: 1,
	}
	users := &memoryBaselineStore{user: models.User{ID: 7}}
	service := NewTrackingService(cycles, &memoryEntryStore{}, &memoryWearableStore{}, users)

	record, err := service.StartPeriod(7, mustParseServiceDay(t, "2025-02-01"), time.UTC)
	if err != nil {
		t.Fatalf("StartPeriod() unexpected error: %v", err)
	}

	if record.ID != 1 || record.CycleLength != 28 {
		t.Fatalf("expected the existing record untouched, got %+v", record)
	}
	if len(cycles.records) != 1 {
		t.Fatalf("expected no new record, got %d", len(cycles.records))
	}
	if users.lastPeriodStart != nil {
		t.Fatalf("expected baseline anchor untouched, got %v", users.lastPeriodStart)
	}
}

func TestStartPeriodRejectsEarlierDay(t *testing.T) {
	cycles := &memoryCycleStore{
		records: []models.CycleRecord{{
			ID:          1,
			UserID:      7,
			StartDate:   mustParseServiceDay(t, "2025-02-10"),
			CycleLength: 28,
		}},
		nextID: 1,
	}
	service := NewTrackingService(cycles, &memoryEntryStore{}, &memoryWearableStore{}, &memoryBaselineStore{})

	if _, err := service.StartPeriod(7, mustParseServiceDay(t, "2025-02-05"), time.UTC); !errors.Is(err, ErrPeriodStartOutOfOrder) {
		t.Fatalf("expected ErrPeriodStartOutOfOrder, got %v", err)
	}
	if len(cycles.records) != 1 {
		t.Fatalf("expected history untouched, got %d records", len(cycles.records))
	}
}

func intPointer(value int) *int {
	return &value
}

func floatPointer(value float64) *float64 {
	return &value
}
