package engine

import (
	"math"
	"testing"

	"github.com/ronospace/flowiq/internal/models"
)

func TestPredictSteadyHistory(t *testing.T) {
	t.Parallel()

	snapshot := BuildSnapshot(makeCycles("2025-01-01", 28, 28, 28, 28, 28, 28), nil, nil, Baseline{})
	result := Predict(snapshot, Options{})

	if result.PredictedCycleLength != 28 {
		t.Fatalf("expected predicted length 28, got %d", result.PredictedCycleLength)
	}
	if result.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %.4f", result.Confidence)
	}
	if result.SampleSize != 6 {
		t.Fatalf("expected sample size 6, got %d", result.SampleSize)
	}
	if result.NoHistory {
		t.Fatalf("expected history to be present")
	}
	if result.NextPeriodDate == nil || !result.NextPeriodDate.Equal(mustParseDay("2025-06-18")) {
		t.Fatalf("unexpected next period date: %v", result.NextPeriodDate)
	}
	if result.OvulationDate == nil || !result.OvulationDate.Equal(mustParseDay("2025-06-04")) {
		t.Fatalf("unexpected ovulation date: %v", result.OvulationDate)
	}
	if result.FertileWindowStart == nil || !result.FertileWindowStart.Equal(mustParseDay("2025-05-30")) {
		t.Fatalf("unexpected fertile window start: %v", result.FertileWindowStart)
	}
	if result.FertileWindowEnd == nil || !result.FertileWindowEnd.Equal(mustParseDay("2025-06-05")) {
		t.Fatalf("unexpected fertile window end: %v", result.FertileWindowEnd)
	}
}

func TestPredictMostlyRegularHistory(t *testing.T) {
	t.Parallel()

	snapshot := BuildSnapshot(makeCycles("2025-01-01", 28, 29, 27, 28, 30, 28), nil, nil, Baseline{})
	result := Predict(snapshot, Options{})

	if result.PredictedCycleLength != 28 {
		t.Fatalf("expected predicted length 28, got %d", result.PredictedCycleLength)
	}
	if result.Confidence < 0.8 {
		t.Fatalf("expected confidence of at least 0.8, got %.4f", result.Confidence)
	}
	if result.NextPeriodDate == nil || !result.NextPeriodDate.Equal(mustParseDay("2025-06-20")) {
		t.Fatalf("unexpected next period date: %v", result.NextPeriodDate)
	}
}

func TestPredictVolatileHistory(t *testing.T) {
	t.Parallel()

	snapshot := BuildSnapshot(makeCycles("2025-01-01", 21, 45, 22), nil, nil, Baseline{})
	result := Predict(snapshot, Options{})

	if result.PredictedCycleLength != 29 {
		t.Fatalf("expected predicted length 29, got %d", result.PredictedCycleLength)
	}
	if math.Abs(result.Confidence-0.55) > 1e-9 {
		t.Fatalf("expected confidence 0.55, got %.4f", result.Confidence)
	}
}

func TestPredictThinHistory(t *testing.T) {
	t.Parallel()

	snapshot := BuildSnapshot(makeCycles("2025-01-01", 28, 30), nil, nil, Baseline{})
	result := Predict(snapshot, Options{})

	if result.Confidence != 0.5 {
		t.Fatalf("expected capped confidence 0.5 below 3 cycles, got %.4f", result.Confidence)
	}
	if result.SampleSize != 2 {
		t.Fatalf("expected sample size 2, got %d", result.SampleSize)
	}
	if result.PredictedCycleLength != 29 {
		t.Fatalf("expected predicted length 29, got %d", result.PredictedCycleLength)
	}
	if result.NextPeriodDate == nil || !result.NextPeriodDate.Equal(mustParseDay("2025-02-27")) {
		t.Fatalf("unexpected next period date: %v", result.NextPeriodDate)
	}
}

func TestPredictEmptyHistory(t *testing.T) {
	t.Parallel()

	result := Predict(BuildSnapshot(nil, nil, nil, Baseline{}), Options{})

	if !result.NoHistory {
		t.Fatalf("expected the no-history flag")
	}
	if result.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %.4f", result.Confidence)
	}
	if result.PredictedCycleLength != models.DefaultCycleLength {
		t.Fatalf("expected default length %d, got %d", models.DefaultCycleLength, result.PredictedCycleLength)
	}
	if result.NextPeriodDate != nil {
		t.Fatalf("expected no dates without an anchor, got %v", result.NextPeriodDate)
	}
}

func TestPredictFromBaselineOnly(t *testing.T) {
	t.Parallel()

	baseline := Baseline{LastPeriodStart: mustParseDay("2025-03-01")}
	result := Predict(BuildSnapshot(nil, nil, nil, baseline), Options{})

	if !result.NoHistory || result.Confidence != 0 {
		t.Fatalf("expected a zero-confidence no-history forecast, got confidence %.2f", result.Confidence)
	}
	if result.NextPeriodDate == nil || !result.NextPeriodDate.Equal(mustParseDay("2025-03-29")) {
		t.Fatalf("expected baseline anchor plus 28 days, got %v", result.NextPeriodDate)
	}

	baseline.CycleLength = 30
	result = Predict(BuildSnapshot(nil, nil, nil, baseline), Options{})
	if result.PredictedCycleLength != 30 {
		t.Fatalf("expected baseline length 30, got %d", result.PredictedCycleLength)
	}
	if result.NextPeriodDate == nil || !result.NextPeriodDate.Equal(mustParseDay("2025-03-31")) {
		t.Fatalf("expected baseline anchor plus 30 days, got %v", result.NextPeriodDate)
	}
}

func TestPredictFertileWindowBracketsOvulation(t *testing.T) {
	t.Parallel()

	histories := [][]int{
		{28, 28, 28, 28, 28, 28},
		{21, 45, 22},
		{35, 34, 36, 35},
		{28, 30},
	}
	for _, lengths := range histories {
		snapshot := BuildSnapshot(makeCycles("2025-01-01", lengths...), nil, nil, Baseline{})
		result := Predict(snapshot, Options{})
		if result.FertileWindowStart == nil || result.OvulationDate == nil || result.FertileWindowEnd == nil {
			t.Fatalf("expected dates for history %v", lengths)
		}
		if !result.FertileWindowStart.Before(*result.OvulationDate) {
			t.Fatalf("fertile window start %s not before ovulation %s for history %v",
				result.FertileWindowStart.Format("2006-01-02"), result.OvulationDate.Format("2006-01-02"), lengths)
		}
		if !result.OvulationDate.Before(*result.FertileWindowEnd) {
			t.Fatalf("ovulation %s not before fertile window end %s for history %v",
				result.OvulationDate.Format("2006-01-02"), result.FertileWindowEnd.Format("2006-01-02"), lengths)
		}
	}
}

func TestPredictSeverityNudge(t *testing.T) {
	t.Parallel()

	cycles := makeCycles("2025-01-01", 28, 28, 28)
	for index := range cycles {
		cycles[index].AverageFlowIntensity = floatPtr(1)
	}
	entries := []models.DailyEntry{
		makeEntry("2025-02-27", 0, "cramps", "headache"),
		makeEntry("2025-02-28", 0, "cramps", "nausea"),
		makeEntry("2025-03-01", 0, "cramps", "headache"),
	}
	snapshot := BuildSnapshot(cycles, entries, nil, Baseline{})
	result := Predict(snapshot, Options{})

	if result.PredictedCycleLength != 29 {
		t.Fatalf("expected severity nudge to push prediction to 29, got %d", result.PredictedCycleLength)
	}
	if result.NextPeriodDate == nil || !result.NextPeriodDate.Equal(mustParseDay("2025-03-27")) {
		t.Fatalf("unexpected next period date: %v", result.NextPeriodDate)
	}

	calm := BuildSnapshot(makeCycles("2025-01-01", 28, 28, 28), nil, nil, Baseline{})
	if Predict(calm, Options{}).PredictedCycleLength != 28 {
		t.Fatalf("expected no nudge without severity data")
	}
}
