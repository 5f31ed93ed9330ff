package engine

import (
	"math"
	"time"

	"github.com/ronospace/flowiq/internal/models"
)

const (
	// DefaultLutealPhaseDays fixes the luteal phase length. Ovulation is
	// derived by walking back from the predicted next period.
	DefaultLutealPhaseDays = 14

	fertileWindowBeforeDays = 5
	fertileWindowAfterDays  = 1

	// Predictions are clamped to a plausible band regardless of what the
	// severity nudge suggests.
	MinPredictedCycleLength = 21
	MaxPredictedCycleLength = 35
)

const (
	baseConfidence       = 0.85
	lowSampleConfidence  = 0.5
	minimumConfidence    = 0.3
	regularCycleStdDev   = 2.0
	regularityConfidence = 0.7
)

// PredictionResult is the forward-looking output of the engine: the next
// period, the ovulation estimate and the fertile window around it. Dates are
// nil when no anchor exists at all.
type PredictionResult struct {
	PredictedCycleLength int        `json:"predicted_cycle_length"`
	NextPeriodDate       *time.Time `json:"next_period_date,omitempty"`
	OvulationDate        *time.Time `json:"ovulation_date,omitempty"`
	FertileWindowStart   *time.Time `json:"fertile_window_start,omitempty"`
	FertileWindowEnd     *time.Time `json:"fertile_window_end,omitempty"`
	Confidence           float64    `json:"confidence"`
	SampleSize           int        `json:"sample_size"`
	NoHistory            bool       `json:"no_history"`
}

// Predict builds the next-period forecast from a snapshot. With zero logged
// cycles it falls back to the onboarding baseline and reports confidence 0
// with the NoHistory flag set, so a guess is never presented as a prediction.
func Predict(snapshot Snapshot, options Options) PredictionResult {
	options = options.withDefaults()
	statistics, sufficient := CycleLengthStatistics(snapshot, options.StatisticsWindow)

	result := PredictionResult{SampleSize: statistics.SampleSize}
	switch {
	case statistics.SampleSize == 0:
		result.NoHistory = true
		result.PredictedCycleLength = models.DefaultCycleLength
		if models.IsValidBaselineCycleLength(snapshot.Baseline.CycleLength) {
			result.PredictedCycleLength = snapshot.Baseline.CycleLength
		}
	case !sufficient:
		result.PredictedCycleLength = clampInt(roundToInt(statistics.MeanLength), MinPredictedCycleLength, MaxPredictedCycleLength)
		result.Confidence = lowSampleConfidence
	default:
		predicted := roundToInt(statistics.MeanLength) + severityNudge(snapshot)
		result.PredictedCycleLength = clampInt(predicted, MinPredictedCycleLength, MaxPredictedCycleLength)
		result.Confidence = predictionConfidence(statistics, snapshot)
	}

	anchor, ok := snapshot.LastPeriodStart()
	if !ok {
		return result
	}
	nextPeriod := anchor.AddDate(0, 0, result.PredictedCycleLength)
	ovulation := nextPeriod.AddDate(0, 0, -options.LutealPhaseDays)
	windowStart := ovulation.AddDate(0, 0, -fertileWindowBeforeDays)
	windowEnd := ovulation.AddDate(0, 0, fertileWindowAfterDays)
	result.NextPeriodDate = &nextPeriod
	result.OvulationDate = &ovulation
	result.FertileWindowStart = &windowStart
	result.FertileWindowEnd = &windowEnd
	return result
}

// predictionConfidence starts from 0.85 and pays a penalty for variability
// and for a thin sample, then takes a 0.8 cut when the latest cycle deviated
// from the mean by more than one standard deviation. Regular histories keep a
// 0.7 floor so a single odd cycle cannot make a steady tracker look
// unpredictable.
func predictionConfidence(statistics CycleStatistics, snapshot Snapshot) float64 {
	variabilityPenalty := 0.05 * statistics.StdDevLength
	if variabilityPenalty > 0.25 {
		variabilityPenalty = 0.25
	}
	samplePenalty := 0.0
	if statistics.SampleSize < DefaultStatisticsWindow {
		samplePenalty = 0.05 * float64(DefaultStatisticsWindow-statistics.SampleSize) / 3
	}
	confidence := baseConfidence - variabilityPenalty - samplePenalty

	if latest, ok := snapshot.LatestCycle(); ok {
		deviation := math.Abs(float64(latest.CycleLength) - statistics.MeanLength)
		if deviation > statistics.StdDevLength {
			confidence *= 0.8
		}
	}

	floor := minimumConfidence
	if statistics.StdDevLength < regularCycleStdDev {
		floor = regularityConfidence
	}
	if confidence < floor {
		confidence = floor
	}
	return confidence
}

// severityNudge shifts the predicted length by at most one day, based on how
// the latest cycle's logged severity compares with the cycles before it.
// Heavier-than-usual cycles tend to run the prediction slightly off either
// way, so the correction stays deliberately small.
func severityNudge(snapshot Snapshot) int {
	if len(snapshot.Cycles) < 2 {
		return 0
	}
	latest := snapshot.Cycles[len(snapshot.Cycles)-1]
	latestSeverity, ok := cycleSeverity(snapshot, latest)
	if !ok {
		return 0
	}

	total := 0.0
	count := 0
	for _, record := range snapshot.Cycles[:len(snapshot.Cycles)-1] {
		severity, ok := cycleSeverity(snapshot, record)
		if !ok {
			continue
		}
		total += severity
		count++
	}
	if count == 0 {
		return 0
	}
	return clampInt(roundToInt(latestSeverity-total/float64(count)), -1, 1)
}

// cycleSeverity blends the symptom density of the cycle's logged days with
// the recorded average flow intensity. The boolean is false when the cycle
// carries neither.
func cycleSeverity(snapshot Snapshot, record models.CycleRecord) (float64, bool) {
	start := dateOnly(record.StartDate)
	end := start.AddDate(0, 0, record.CycleLength)

	symptomTotal := 0.0
	loggedDays := 0
	for _, entry := range snapshot.Entries {
		day := dateOnly(entry.Date)
		if day.Before(start) || !day.Before(end) {
			continue
		}
		symptomTotal += float64(len(entry.Symptoms))
		loggedDays++
	}

	severity := 0.0
	found := false
	if loggedDays > 0 {
		severity = symptomTotal / float64(loggedDays)
		found = true
	}
	if record.AverageFlowIntensity != nil {
		severity += *record.AverageFlowIntensity * 0.5
		found = true
	}
	return severity, found
}

func roundToInt(value float64) int {
	return int(math.Round(value))
}

func clampInt(value int, minimum int, maximum int) int {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}
