package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PatternKind tags where a detected pattern came from.
type PatternKind string

const (
	PatternWeekday     PatternKind = "weekday"
	PatternPhaseLinked PatternKind = "phase_linked"
	PatternAnomaly     PatternKind = "anomaly"
)

const (
	patternMoodDeviation   = 1.5
	patternMinimumSamples  = 3
	minPatternSignificance = 0.5
	anomalyDeviationDays   = 7
)

// DetectedPattern is one surfaced observation about the user's history.
type DetectedPattern struct {
	PatternID    string      `json:"pattern_id"`
	Kind         PatternKind `json:"kind"`
	Description  string      `json:"description"`
	Significance float64     `json:"significance"`
}

// DetectPatterns runs the weekday, phase and anomaly passes over the snapshot
// and keeps only patterns significant enough to surface, strongest first.
func DetectPatterns(snapshot Snapshot, options Options) []DetectedPattern {
	options = options.withDefaults()

	patterns := weekdayPatterns(snapshot)
	patterns = append(patterns, phasePatterns(snapshot, options)...)
	patterns = append(patterns, cycleAnomalies(snapshot)...)

	var kept []DetectedPattern
	for _, pattern := range patterns {
		if pattern.Significance >= minPatternSignificance {
			kept = append(kept, pattern)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Significance > kept[j].Significance
	})
	return kept
}

// weekdayPatterns looks for weekdays whose mean mood sits well off the
// overall average, with enough samples to mean something.
func weekdayPatterns(snapshot Snapshot) []DetectedPattern {
	var all []float64
	byWeekday := make(map[time.Weekday][]float64)
	for _, entry := range snapshot.Entries {
		if entry.MoodScore == nil {
			continue
		}
		score := float64(*entry.MoodScore)
		all = append(all, score)
		weekday := dateOnly(entry.Date).Weekday()
		byWeekday[weekday] = append(byWeekday[weekday], score)
	}
	if len(all) == 0 {
		return nil
	}
	overall := meanFloats(all)

	var patterns []DetectedPattern
	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		scores := byWeekday[weekday]
		if len(scores) < patternMinimumSamples {
			continue
		}
		deviation := meanFloats(scores) - overall
		if math.Abs(deviation) < patternMoodDeviation {
			continue
		}
		direction := "above"
		slug := "high"
		if deviation < 0 {
			direction = "below"
			slug = "low"
		}
		patterns = append(patterns, DetectedPattern{
			PatternID:    fmt.Sprintf("weekday-%s-%s", strings.ToLower(weekday.String()), slug),
			Kind:         PatternWeekday,
			Description:  fmt.Sprintf("Mood on %ss runs %.1f points %s your overall average", weekday, math.Abs(deviation), direction),
			Significance: moodPatternSignificance(math.Abs(deviation), len(scores)),
		})
	}
	return patterns
}

// phasePatterns applies the weekday rule to phase buckets instead, which is
// what catches PMS-like clustering in the luteal phase.
func phasePatterns(snapshot Snapshot, options Options) []DetectedPattern {
	var all []float64
	for _, entry := range snapshot.Entries {
		if entry.MoodScore != nil {
			all = append(all, float64(*entry.MoodScore))
		}
	}
	if len(all) == 0 {
		return nil
	}
	overall := meanFloats(all)

	periodLength := snapshot.PeriodLengthEstimate(options.StatisticsWindow)
	byPhase := MoodStatisticsByPhase(snapshot, periodLength)

	var patterns []DetectedPattern
	for _, phase := range []Phase{PhaseMenstrual, PhaseFollicular, PhaseOvulatory, PhaseLuteal} {
		statistics, ok := byPhase[phase]
		if !ok || statistics.Count < patternMinimumSamples {
			continue
		}
		deviation := statistics.Mean - overall
		if math.Abs(deviation) < patternMoodDeviation {
			continue
		}
		direction := "above"
		slug := "high"
		if deviation < 0 {
			direction = "below"
			slug = "low"
		}
		patterns = append(patterns, DetectedPattern{
			PatternID:    fmt.Sprintf("phase-%s-%s", phase, slug),
			Kind:         PatternPhaseLinked,
			Description:  fmt.Sprintf("Mood during the %s phase runs %.1f points %s your overall average", phase, math.Abs(deviation), direction),
			Significance: moodPatternSignificance(math.Abs(deviation), statistics.Count),
		})
	}
	return patterns
}

// cycleAnomalies flags any of the last three cycles that ran more than a week
// off the mean of everything before them.
func cycleAnomalies(snapshot Snapshot) []DetectedPattern {
	if len(snapshot.Cycles) < 4 {
		return nil
	}
	recent := snapshot.Cycles[len(snapshot.Cycles)-3:]
	var older []float64
	for _, record := range snapshot.Cycles[:len(snapshot.Cycles)-3] {
		older = append(older, float64(record.CycleLength))
	}
	baseline := meanFloats(older)

	var patterns []DetectedPattern
	for _, record := range recent {
		deviation := float64(record.CycleLength) - baseline
		if math.Abs(deviation) <= anomalyDeviationDays {
			continue
		}
		direction := "longer"
		if deviation < 0 {
			direction = "shorter"
		}
		start := dateOnly(record.StartDate)
		patterns = append(patterns, DetectedPattern{
			PatternID:    fmt.Sprintf("anomaly-%s", start.Format("2006-01-02")),
			Kind:         PatternAnomaly,
			Description:  fmt.Sprintf("Cycle starting %s ran %d days, %.0f days %s than your earlier average", start.Format("Jan 2, 2006"), record.CycleLength, math.Abs(deviation), direction),
			Significance: clamp01(math.Abs(deviation) / 14),
		})
	}
	return patterns
}

func moodPatternSignificance(deviation float64, samples int) float64 {
	return clamp01(deviation/3) * clamp01(float64(samples)/5)
}
