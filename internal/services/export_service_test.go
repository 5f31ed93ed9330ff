package services

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/models"
)

type stubSnapshotSource struct {
	snapshot engine.Snapshot
	user     models.User
	err      error
}

func (stub *stubSnapshotSource) LoadSnapshot(uint) (engine.Snapshot, models.User, error) {
	if stub.err != nil {
		return engine.Snapshot{}, models.User{}, stub.err
	}
	return stub.snapshot, stub.user, nil
}

func exportFixtureSource(t *testing.T) *stubSnapshotSource {
	t.Helper()

	periodLength := 5
	records := []models.CycleRecord{{
		ID:           1,
		UserID:       4,
		StartDate:    mustParseServiceDay(t, "2025-03-01"),
		CycleLength:  28,
		PeriodLength: &periodLength,
	}}

	firstMood := 4
	firstFlow := 2
	laterMood := 7
	preCycleMood := 5
	entries := []models.DailyEntry{
		{
			UserID:        4,
			Date:          mustParseServiceDay(t, "2025-03-01"),
			Symptoms:      []string{"cramps", "fatigue"},
			MoodScore:     &firstMood,
			FlowIntensity: &firstFlow,
			Notes:         "first day",
		},
		{UserID: 4, Date: mustParseServiceDay(t, "2025-03-10"), MoodScore: &laterMood},
		{UserID: 4, Date: mustParseServiceDay(t, "2025-02-20"), MoodScore: &preCycleMood},
	}

	steps := 4000
	sleep := 7.5
	wearables := []models.WearableSummary{{
		UserID:     4,
		Date:       mustParseServiceDay(t, "2025-03-01"),
		Steps:      &steps,
		SleepHours: &sleep,
	}}

	return &stubSnapshotSource{
		snapshot: engine.BuildSnapshot(records, entries, wearables, engine.Baseline{}),
		user:     models.User{ID: 4, TimeZone: "UTC"},
	}
}

func TestBuildCSVRowsJoinsCyclePositionAndWearables(t *testing.T) {
	service := NewExportService(exportFixtureSource(t))

	rows, err := service.BuildCSVRows(4, nil, nil)
	if err != nil {
		t.Fatalf("BuildCSVRows() unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	preCycle := rows[0]
	if preCycle.Date != "2025-02-20" || preCycle.DayInCycle != 0 || preCycle.Phase != "" {
		t.Fatalf("expected pre-cycle row without position, got %+v", preCycle)
	}
	if preCycle.Wearable != nil {
		t.Fatalf("expected no wearable on the pre-cycle day")
	}

	periodDay := rows[1]
	if periodDay.DayInCycle != 1 || periodDay.Phase != engine.PhaseMenstrual {
		t.Fatalf("expected day 1 menstrual, got day %d phase %s", periodDay.DayInCycle, periodDay.Phase)
	}
	if periodDay.Wearable == nil || periodDay.Wearable.Steps == nil || *periodDay.Wearable.Steps != 4000 {
		t.Fatalf("expected wearable with 4000 steps joined, got %+v", periodDay.Wearable)
	}

	midCycle := rows[2]
	if midCycle.DayInCycle != 10 || midCycle.Phase != engine.PhaseFollicular {
		t.Fatalf("expected day 10 follicular, got day %d phase %s", midCycle.DayInCycle, midCycle.Phase)
	}
}

func TestExportCSVRowColumns(t *testing.T) {
	service := NewExportService(exportFixtureSource(t))

	rows, err := service.BuildCSVRows(4, nil, nil)
	if err != nil {
		t.Fatalf("BuildCSVRows() unexpected error: %v", err)
	}

	want := []string{
		"2025-03-01", "1", "menstrual", "2", "4", "cramps; fatigue", "first day",
		"4000", "7.5", "", "", "", "",
	}
	if got := rows[1].Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected columns %v, got %v", want, got)
	}

	for _, row := range rows {
		if len(row.Columns()) != len(ExportCSVHeaders) {
			t.Fatalf("expected %d cells on %s, got %d", len(ExportCSVHeaders), row.Date, len(row.Columns()))
		}
	}
}

func TestBuildCSVRowsHonorsDateRange(t *testing.T) {
	service := NewExportService(exportFixtureSource(t))

	from := mustParseServiceDay(t, "2025-03-01")
	to := mustParseServiceDay(t, "2025-03-05")
	rows, err := service.BuildCSVRows(4, &from, &to)
	if err != nil {
		t.Fatalf("BuildCSVRows() unexpected error: %v", err)
	}

	if len(rows) != 1 || rows[0].Date != "2025-03-01" {
		t.Fatalf("expected only the in-range day, got %+v", rows)
	}
}

func TestBuildSummaryReportsCoverage(t *testing.T) {
	service := NewExportService(exportFixtureSource(t))

	summary, err := service.BuildSummary(4, nil, nil)
	if err != nil {
		t.Fatalf("BuildSummary() unexpected error: %v", err)
	}

	want := ExportSummary{TotalEntries: 3, HasData: true, DateFrom: "2025-02-20", DateTo: "2025-03-10"}
	if summary != want {
		t.Fatalf("expected %+v, got %+v", want, summary)
	}
}

func TestBuildSummaryEmptyHistory(t *testing.T) {
	service := NewExportService(&stubSnapshotSource{user: models.User{ID: 4}})

	summary, err := service.BuildSummary(4, nil, nil)
	if err != nil {
		t.Fatalf("BuildSummary() unexpected error: %v", err)
	}
	if summary.HasData || summary.TotalEntries != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestBuildSummaryPropagatesLoadFailure(t *testing.T) {
	loadErr := errors.New("snapshot unavailable")
	service := NewExportService(&stubSnapshotSource{err: loadErr})

	if _, err := service.BuildSummary(4, nil, nil); !errors.Is(err, loadErr) {
		t.Fatalf("expected load failure surfaced, got %v", err)
	}
}
