package engine

import (
	"math"

	"github.com/ronospace/flowiq/internal/models"
)

// DefaultStatisticsWindow bounds how many of the newest cycles feed the
// statistics when the caller does not say otherwise.
const DefaultStatisticsWindow = 6

// MinimumCycleSample is the smallest sample the statistics are considered
// reliable at. Below it callers receive ok=false and must branch instead of
// treating the numbers as settled.
const MinimumCycleSample = 3

// CycleStatistics summarizes the recent cycle lengths of one user.
type CycleStatistics struct {
	MeanLength          float64 `json:"mean_length"`
	StdDevLength        float64 `json:"std_dev_length"`
	MinLength           int     `json:"min_length"`
	MaxLength           int     `json:"max_length"`
	SampleSize          int     `json:"sample_size"`
	MeanSymptomSeverity float64 `json:"mean_symptom_severity"`
}

// CycleLengthStatistics computes mean and population standard deviation over
// up to window of the newest valid cycles. The boolean is false when fewer
// than MinimumCycleSample cycles exist; whatever could be computed is still
// filled in so callers can degrade instead of failing.
func CycleLengthStatistics(snapshot Snapshot, window int) (CycleStatistics, bool) {
	if window <= 0 {
		window = DefaultStatisticsWindow
	}
	lengths := tailInts(snapshot.CycleLengths(), window)

	statistics := CycleStatistics{SampleSize: len(lengths)}
	statistics.MeanSymptomSeverity = meanSymptomsPerDay(snapshot.Entries)
	if len(lengths) == 0 {
		return statistics, false
	}

	values := make([]float64, 0, len(lengths))
	minimum := lengths[0]
	maximum := lengths[0]
	for _, length := range lengths {
		values = append(values, float64(length))
		if length < minimum {
			minimum = length
		}
		if length > maximum {
			maximum = length
		}
	}
	statistics.MeanLength = meanFloats(values)
	statistics.StdDevLength = populationStdDev(values, statistics.MeanLength)
	statistics.MinLength = minimum
	statistics.MaxLength = maximum

	return statistics, len(lengths) >= MinimumCycleSample
}

// Statistics summarizes one numeric series.
type Statistics struct {
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
	Count   int     `json:"count"`
}

func newStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}
	statistics := Statistics{
		Count:   len(values),
		Minimum: values[0],
		Maximum: values[0],
	}
	for _, value := range values {
		if value < statistics.Minimum {
			statistics.Minimum = value
		}
		if value > statistics.Maximum {
			statistics.Maximum = value
		}
	}
	statistics.Mean = meanFloats(values)
	statistics.StdDev = populationStdDev(values, statistics.Mean)
	return statistics
}

// MoodStatisticsByPhase buckets every logged mood score by the phase its day
// fell in and summarizes each bucket. Entries without a score or without an
// owning cycle are skipped.
func MoodStatisticsByPhase(snapshot Snapshot, periodLength int) map[Phase]Statistics {
	buckets := make(map[Phase][]float64)
	for _, entry := range snapshot.Entries {
		if entry.MoodScore == nil {
			continue
		}
		dayInCycle, record, ok := snapshot.DayInCycle(entry.Date)
		if !ok {
			continue
		}
		phase, _ := PhaseForDay(dayInCycle, record.CycleLength, periodLength)
		buckets[phase] = append(buckets[phase], float64(*entry.MoodScore))
	}

	result := make(map[Phase]Statistics, len(buckets))
	for phase, values := range buckets {
		result[phase] = newStatistics(values)
	}
	return result
}

func meanSymptomsPerDay(entries []models.DailyEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	total := 0.0
	for _, entry := range entries {
		total += float64(len(entry.Symptoms))
	}
	return total / float64(len(entries))
}

func meanFloats(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, value := range values {
		total += value
	}
	return total / float64(len(values))
}

// populationStdDev divides by n, not n-1: the recent window is treated as the
// whole population of interest, matching how the scores were calibrated.
func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, value := range values {
		deviation := value - mean
		total += deviation * deviation
	}
	return math.Sqrt(total / float64(len(values)))
}

func tailInts(values []int, n int) []int {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
