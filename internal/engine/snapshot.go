package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/ronospace/flowiq/internal/models"
)

// Baseline is the onboarding profile the engine falls back to while logged
// history is too thin to compute from.
type Baseline struct {
	CycleLength     int
	PeriodLength    int
	LastPeriodStart time.Time
}

// Snapshot is a frozen, ordered view of one user's history. Every engine
// computation is a pure function of a snapshot, so concurrent report builds
// over the same snapshot are safe and repeatable. Build copies its inputs;
// later appends by the logging subsystem are never observed.
type Snapshot struct {
	Cycles    []models.CycleRecord
	Entries   []models.DailyEntry
	Wearables []models.WearableSummary
	Baseline  Baseline

	// Issues collects data-quality findings from construction, e.g. malformed
	// cycle records that were excluded from statistics.
	Issues []string
}

// BuildSnapshot validates, copies and orders the raw rows into a snapshot.
// Malformed cycle records and out-of-range mood scores are excluded from
// computation and reported as issues rather than failing the whole report.
func BuildSnapshot(cycles []models.CycleRecord, entries []models.DailyEntry, wearables []models.WearableSummary, baseline Baseline) Snapshot {
	snapshot := Snapshot{Baseline: baseline}

	snapshot.Cycles = make([]models.CycleRecord, 0, len(cycles))
	for _, record := range cycles {
		if !record.Valid() {
			snapshot.Issues = append(snapshot.Issues, fmt.Sprintf(
				"cycle record %d starting %s excluded: invalid lengths (cycle=%d)",
				record.ID, record.StartDate.Format("2006-01-02"), record.CycleLength))
			continue
		}
		snapshot.Cycles = append(snapshot.Cycles, record)
	}
	sort.Slice(snapshot.Cycles, func(i, j int) bool {
		return snapshot.Cycles[i].StartDate.Before(snapshot.Cycles[j].StartDate)
	})

	snapshot.Entries = make([]models.DailyEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.MoodScore != nil && !models.IsValidMoodScore(*entry.MoodScore) {
			snapshot.Issues = append(snapshot.Issues, fmt.Sprintf(
				"entry on %s: mood score %d outside %d..%d ignored",
				entry.Date.Format("2006-01-02"), *entry.MoodScore, models.MinMoodScore, models.MaxMoodScore))
			entry.MoodScore = nil
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	sort.Slice(snapshot.Entries, func(i, j int) bool {
		return snapshot.Entries[i].Date.Before(snapshot.Entries[j].Date)
	})

	snapshot.Wearables = make([]models.WearableSummary, 0, len(wearables))
	snapshot.Wearables = append(snapshot.Wearables, wearables...)
	sort.Slice(snapshot.Wearables, func(i, j int) bool {
		return snapshot.Wearables[i].Date.Before(snapshot.Wearables[j].Date)
	})

	return snapshot
}

// LatestCycle returns the most recent cycle record, the cycle currently being
// tracked.
func (snapshot Snapshot) LatestCycle() (models.CycleRecord, bool) {
	if len(snapshot.Cycles) == 0 {
		return models.CycleRecord{}, false
	}
	return snapshot.Cycles[len(snapshot.Cycles)-1], true
}

// LastPeriodStart is the anchor date for every forward-looking computation:
// the latest cycle record's start, falling back to the onboarding baseline.
func (snapshot Snapshot) LastPeriodStart() (time.Time, bool) {
	if latest, ok := snapshot.LatestCycle(); ok {
		return dateOnly(latest.StartDate), true
	}
	if !snapshot.Baseline.LastPeriodStart.IsZero() {
		return dateOnly(snapshot.Baseline.LastPeriodStart), true
	}
	return time.Time{}, false
}

// CycleLengths lists every valid cycle length, oldest first.
func (snapshot Snapshot) CycleLengths() []int {
	lengths := make([]int, 0, len(snapshot.Cycles))
	for _, record := range snapshot.Cycles {
		lengths = append(lengths, record.CycleLength)
	}
	return lengths
}

// RecentCycles returns up to n of the newest cycle records, oldest first.
func (snapshot Snapshot) RecentCycles(n int) []models.CycleRecord {
	if n <= 0 || len(snapshot.Cycles) <= n {
		return snapshot.Cycles
	}
	return snapshot.Cycles[len(snapshot.Cycles)-n:]
}

// OwningCycle finds the cycle record a calendar day belongs to: the newest
// record whose start is not after the day. Days before the first record have
// no owning cycle.
func (snapshot Snapshot) OwningCycle(day time.Time) (models.CycleRecord, bool) {
	day = dateOnly(day)
	for index := len(snapshot.Cycles) - 1; index >= 0; index-- {
		if !dateOnly(snapshot.Cycles[index].StartDate).After(day) {
			return snapshot.Cycles[index], true
		}
	}
	return models.CycleRecord{}, false
}

// DayInCycle derives the 1-based day offset of a calendar day within its
// owning cycle. Derived on demand so a corrected start date is always
// reflected, never stored.
func (snapshot Snapshot) DayInCycle(day time.Time) (int, models.CycleRecord, bool) {
	record, ok := snapshot.OwningCycle(day)
	if !ok {
		return 0, models.CycleRecord{}, false
	}
	return daysBetween(dateOnly(record.StartDate), dateOnly(day)) + 1, record, true
}

// PeriodLengthEstimate is the observed average period length over the newest
// cycles, falling back to the baseline and then the bundled default.
func (snapshot Snapshot) PeriodLengthEstimate(window int) int {
	if window <= 0 {
		window = DefaultStatisticsWindow
	}
	total := 0
	count := 0
	for _, record := range snapshot.RecentCycles(window) {
		if record.PeriodLength != nil && *record.PeriodLength > 0 {
			total += *record.PeriodLength
			count++
		}
	}
	if count > 0 {
		return int(float64(total)/float64(count) + 0.5)
	}
	if models.IsValidBaselinePeriodLength(snapshot.Baseline.PeriodLength) {
		return snapshot.Baseline.PeriodLength
	}
	return models.DefaultPeriodLength
}

func daysBetween(from time.Time, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func dateOnly(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, value.Location())
}
