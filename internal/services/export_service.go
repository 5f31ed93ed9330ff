package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/ronospace/flowiq/internal/engine"
	"github.com/ronospace/flowiq/internal/models"
)

const exportDateLayout = "2006-01-02"

// ExportCSVHeaders orders the clinician-handoff columns: the logged day, the
// derived cycle position, then diary and wearable metrics.
var ExportCSVHeaders = []string{
	"Date",
	"Day in cycle",
	"Phase",
	"Flow intensity",
	"Mood score",
	"Symptoms",
	"Notes",
	"Steps",
	"Sleep hours",
	"Resting heart rate",
	"HRV",
	"Body temperature",
	"Blood oxygen",
}

type ExportSnapshotSource interface {
	LoadSnapshot(userID uint) (engine.Snapshot, models.User, error)
}

// ExportService renders a user's logged history as spreadsheet rows, joining
// each diary day with its derived cycle position and any wearable roll-up.
type ExportService struct {
	snapshots ExportSnapshotSource
}

type ExportSummary struct {
	TotalEntries int
	HasData      bool
	DateFrom     string
	DateTo       string
}

type ExportCSVRow struct {
	Date          string
	DayInCycle    int
	Phase         engine.Phase
	FlowIntensity *int
	MoodScore     *int
	Symptoms      []string
	Notes         string
	Wearable      *models.WearableSummary
}

func NewExportService(snapshots ExportSnapshotSource) *ExportService {
	return &ExportService{snapshots: snapshots}
}

// BuildSummary reports how much loggable data an export would cover, for the
// confirmation step before a download.
func (service *ExportService) BuildSummary(userID uint, from *time.Time, to *time.Time) (ExportSummary, error) {
	rows, err := service.BuildCSVRows(userID, from, to)
	if err != nil {
		return ExportSummary{}, err
	}
	if len(rows) == 0 {
		return ExportSummary{}, nil
	}
	return ExportSummary{
		TotalEntries: len(rows),
		HasData:      true,
		DateFrom:     rows[0].Date,
		DateTo:       rows[len(rows)-1].Date,
	}, nil
}

// BuildCSVRows assembles one row per logged diary day inside the optional
// range, oldest first. Days before the first cycle record export without a
// cycle position.
func (service *ExportService) BuildCSVRows(userID uint, from *time.Time, to *time.Time) ([]ExportCSVRow, error) {
	snapshot, user, err := service.snapshots.LoadSnapshot(userID)
	if err != nil {
		return nil, err
	}

	location := UserLocation(user)
	periodLength := snapshot.PeriodLengthEstimate(0)

	wearablesByDay := make(map[string]models.WearableSummary, len(snapshot.Wearables))
	for _, summary := range snapshot.Wearables {
		wearablesByDay[DateAtLocation(summary.Date, location).Format(exportDateLayout)] = summary
	}

	rows := make([]ExportCSVRow, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		day := DateAtLocation(entry.Date, location)
		if from != nil && day.Before(DateAtLocation(*from, location)) {
			continue
		}
		if to != nil && day.After(DateAtLocation(*to, location)) {
			continue
		}

		row := ExportCSVRow{
			Date:          day.Format(exportDateLayout),
			FlowIntensity: entry.FlowIntensity,
			MoodScore:     entry.MoodScore,
			Symptoms:      entry.Symptoms,
			Notes:         entry.Notes,
		}
		if dayInCycle, record, ok := snapshot.DayInCycle(day); ok {
			row.DayInCycle = dayInCycle
			row.Phase, _ = engine.PhaseForDay(dayInCycle, record.CycleLength, periodLength)
		}
		if summary, ok := wearablesByDay[row.Date]; ok {
			row.Wearable = &summary
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Columns renders the row in ExportCSVHeaders order. Absent optionals export
// as empty cells, never as fabricated values.
func (row ExportCSVRow) Columns() []string {
	columns := []string{
		row.Date,
		csvOptionalInt(positiveIntPointer(row.DayInCycle)),
		csvPhase(row.Phase),
		csvOptionalInt(row.FlowIntensity),
		csvOptionalInt(row.MoodScore),
		strings.Join(row.Symptoms, "; "),
		row.Notes,
	}
	if row.Wearable == nil {
		return append(columns, "", "", "", "", "", "")
	}
	return append(columns,
		csvOptionalInt(row.Wearable.Steps),
		csvOptionalFloat(row.Wearable.SleepHours),
		csvOptionalFloat(row.Wearable.RestingHeartRate),
		csvOptionalFloat(row.Wearable.HeartRateVariability),
		csvOptionalFloat(row.Wearable.BodyTemperature),
		csvOptionalFloat(row.Wearable.BloodOxygen),
	)
}

func csvPhase(phase engine.Phase) string {
	if phase == "" || phase == engine.PhaseUnknown {
		return ""
	}
	return string(phase)
}

func csvOptionalInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func csvOptionalFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func positiveIntPointer(value int) *int {
	if value <= 0 {
		return nil
	}
	return &value
}
