package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ronospace/flowiq/internal/models"
)

// Condition identifiers are stable API values; clients key follow-up content
// off them.
const (
	ConditionIrregularity  = "irregularity_pcos_like"
	ConditionEndometriosis = "endometriosis_like"
	ConditionThyroid       = "thyroid_like"
	ConditionHeavyFlow     = "heavy_flow"
)

const (
	consultationRiskThreshold = 0.6
	amenorrheaGapDays         = 90
	prolongedBleedingDays     = 10
	recentSymptomWindowDays   = 90
	signalFactorFloor         = 0.25
)

// RiskAssessment is a screening indicator, never a diagnosis. ConditionName
// and ContributingFactors stay descriptive so every surface frames results as
// something to discuss with a professional.
type RiskAssessment struct {
	ConditionID            string   `json:"condition_id"`
	ConditionName          string   `json:"condition_name"`
	RiskScore              float64  `json:"risk_score"`
	Confidence             float64  `json:"confidence"`
	ContributingFactors    []string `json:"contributing_factors,omitempty"`
	RecommendsConsultation bool     `json:"recommends_consultation"`
}

// signal is one independently normalized input in [0,1]. A signal whose
// inputs are missing is absent: it contributes nothing to the score and
// lowers the assessment's confidence, instead of posing as a neutral value.
type signal struct {
	value   float64
	detail  string
	present bool
}

type weightedSignal struct {
	weight float64
	signal signal
}

var conditionKeywords = map[string][]string{
	ConditionIrregularity:  {"irregular", "acne", "hair loss", "weight gain", "oily skin", "facial hair"},
	ConditionEndometriosis: {"cramps", "pelvic pain", "painful period", "pain during sex", "bloating", "nausea", "back pain", "fatigue"},
	ConditionThyroid:       {"fatigue", "weight gain", "cold", "hair loss", "dry skin", "constipation", "palpitations", "anxiety"},
	ConditionHeavyFlow:     {"heavy", "clots", "flooding", "soaking", "dizziness", "anemia", "shortness of breath"},
}

// AssessAllConditions screens every supported condition against the snapshot.
// One assessment per condition is always produced, highest risk first, even
// when every signal is absent.
func AssessAllConditions(snapshot Snapshot, asOf time.Time, options Options) []RiskAssessment {
	assessments := []RiskAssessment{
		assessIrregularity(snapshot, asOf, options),
		assessEndometriosis(snapshot, asOf, options),
		assessThyroid(snapshot, asOf, options),
		assessHeavyFlow(snapshot, asOf, options),
	}
	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].RiskScore > assessments[j].RiskScore
	})
	return assessments
}

// AssessCondition screens a single condition. The boolean is false for an
// unknown condition identifier.
func AssessCondition(snapshot Snapshot, asOf time.Time, conditionID string, options Options) (RiskAssessment, bool) {
	switch conditionID {
	case ConditionIrregularity:
		return assessIrregularity(snapshot, asOf, options), true
	case ConditionEndometriosis:
		return assessEndometriosis(snapshot, asOf, options), true
	case ConditionThyroid:
		return assessThyroid(snapshot, asOf, options), true
	case ConditionHeavyFlow:
		return assessHeavyFlow(snapshot, asOf, options), true
	default:
		return RiskAssessment{}, false
	}
}

// ConditionIDs lists every screened condition identifier.
func ConditionIDs() []string {
	return []string{ConditionIrregularity, ConditionEndometriosis, ConditionThyroid, ConditionHeavyFlow}
}

func assessIrregularity(snapshot Snapshot, asOf time.Time, options Options) RiskAssessment {
	options = options.withDefaults()
	statistics, sufficient := CycleLengthStatistics(snapshot, options.StatisticsWindow)
	symptoms := recentSymptoms(snapshot, asOf)

	inputs := []weightedSignal{
		{weight: 0.6, signal: variabilitySignal(statistics, sufficient)},
		{weight: 0.25, signal: keywordSignal(symptoms, conditionKeywords[ConditionIrregularity])},
		{weight: 0.15, signal: wearableAnomalySignal(snapshot, asOf)},
	}
	var redFlags []string
	if detail, ok := amenorrheaRedFlag(snapshot, asOf); ok {
		redFlags = append(redFlags, detail)
	}
	return scoreCondition(ConditionIrregularity, "Irregular cycles (PCOS-like pattern)", inputs, redFlags)
}

func assessEndometriosis(snapshot Snapshot, asOf time.Time, options Options) RiskAssessment {
	options = options.withDefaults()
	symptoms := recentSymptoms(snapshot, asOf)
	periodLength := snapshot.PeriodLengthEstimate(options.StatisticsWindow)

	inputs := []weightedSignal{
		{weight: 0.55, signal: keywordSignal(symptoms, conditionKeywords[ConditionEndometriosis])},
		{weight: 0.3, signal: menstrualSeveritySignal(snapshot, periodLength)},
		{weight: 0.15, signal: flowIntensitySignal(snapshot, options.StatisticsWindow)},
	}
	return scoreCondition(ConditionEndometriosis, "Endometriosis-like symptom pattern", inputs, nil)
}

func assessThyroid(snapshot Snapshot, asOf time.Time, options Options) RiskAssessment {
	options = options.withDefaults()
	symptoms := recentSymptoms(snapshot, asOf)

	inputs := []weightedSignal{
		{weight: 0.4, signal: persistentLowMoodSignal(snapshot, asOf)},
		{weight: 0.3, signal: wearableAnomalySignal(snapshot, asOf)},
		{weight: 0.3, signal: keywordSignal(symptoms, conditionKeywords[ConditionThyroid])},
	}
	var redFlags []string
	if detail, ok := amenorrheaRedFlag(snapshot, asOf); ok {
		redFlags = append(redFlags, detail)
	}
	return scoreCondition(ConditionThyroid, "Thyroid-like pattern", inputs, redFlags)
}

func assessHeavyFlow(snapshot Snapshot, asOf time.Time, options Options) RiskAssessment {
	options = options.withDefaults()
	symptoms := recentSymptoms(snapshot, asOf)

	inputs := []weightedSignal{
		{weight: 0.5, signal: flowIntensitySignal(snapshot, options.StatisticsWindow)},
		{weight: 0.3, signal: prolongedBleedingSignal(snapshot, options.StatisticsWindow)},
		{weight: 0.2, signal: keywordSignal(symptoms, conditionKeywords[ConditionHeavyFlow])},
	}
	var redFlags []string
	if detail, ok := prolongedBleedingRedFlag(snapshot, options.StatisticsWindow); ok {
		redFlags = append(redFlags, detail)
	}
	return scoreCondition(ConditionHeavyFlow, "Heavy menstrual flow", inputs, redFlags)
}

// scoreCondition folds weighted signals into a clamped risk score. Confidence
// tracks how much of the condition's evidence was actually observable, and a
// red flag forces the consultation recommendation regardless of the score.
func scoreCondition(conditionID string, conditionName string, inputs []weightedSignal, redFlags []string) RiskAssessment {
	assessment := RiskAssessment{ConditionID: conditionID, ConditionName: conditionName}

	totalWeight := 0.0
	presentWeight := 0.0
	score := 0.0
	for _, input := range inputs {
		totalWeight += input.weight
		if !input.signal.present {
			continue
		}
		presentWeight += input.weight
		score += input.weight * clamp01(input.signal.value)
		if input.signal.value >= signalFactorFloor && input.signal.detail != "" {
			assessment.ContributingFactors = append(assessment.ContributingFactors, input.signal.detail)
		}
	}

	assessment.RiskScore = clamp01(score)
	if totalWeight > 0 {
		assessment.Confidence = 0.2 + 0.75*(presentWeight/totalWeight)
	}
	assessment.ContributingFactors = append(assessment.ContributingFactors, redFlags...)
	assessment.RecommendsConsultation = assessment.RiskScore >= consultationRiskThreshold || len(redFlags) > 0
	return assessment
}

// variabilitySignal normalizes cycle spread: standard deviation against an
// 8-day scale, and a long-cycle component once the mean runs past 35 days.
func variabilitySignal(statistics CycleStatistics, sufficient bool) signal {
	if !sufficient {
		return signal{}
	}
	spread := clamp01(statistics.StdDevLength / 8)
	long := 0.0
	if statistics.MeanLength > 35 {
		long = clamp01((statistics.MeanLength - 35) / 10)
	}
	value := math.Max(spread, long)
	detail := fmt.Sprintf("cycle length varies by ±%.1f days across the last %d cycles", statistics.StdDevLength, statistics.SampleSize)
	if long > spread {
		detail = fmt.Sprintf("cycles average %.0f days, beyond the typical range", statistics.MeanLength)
	}
	return signal{value: value, detail: detail, present: true}
}

// keywordSignal is the fraction of condition keywords found in the recent
// symptoms. Matching is case-insensitive substring containment both ways, so
// "cramps" matches "mild cramps" and vice versa.
func keywordSignal(symptoms []string, keywords []string) signal {
	if len(symptoms) == 0 {
		return signal{}
	}
	matched := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		for _, symptom := range symptoms {
			if strings.Contains(symptom, keyword) || strings.Contains(keyword, symptom) {
				matched = append(matched, keyword)
				break
			}
		}
	}
	if len(matched) == 0 {
		return signal{present: true}
	}
	return signal{
		value:   float64(len(matched)) / float64(len(keywords)),
		detail:  fmt.Sprintf("logged symptoms match %d of %d indicators (%s)", len(matched), len(keywords), strings.Join(matched, ", ")),
		present: true,
	}
}

// persistentLowMoodSignal looks for sustained low mood: at least five scored
// days spanning two weeks or more within the last three weeks.
func persistentLowMoodSignal(snapshot Snapshot, asOf time.Time) signal {
	windowStart := dateOnly(asOf).AddDate(0, 0, -21)
	var scores []float64
	var first, last time.Time
	for _, entry := range snapshot.Entries {
		if entry.MoodScore == nil {
			continue
		}
		day := dateOnly(entry.Date)
		if day.Before(windowStart) || day.After(dateOnly(asOf)) {
			continue
		}
		if len(scores) == 0 {
			first = day
		}
		last = day
		scores = append(scores, float64(*entry.MoodScore))
	}
	if len(scores) < 5 || daysBetween(first, last) < 14 {
		return signal{}
	}
	mean := meanFloats(scores)
	value := clamp01((4.5 - mean) / 2.5)
	if value == 0 {
		return signal{present: true}
	}
	return signal{
		value:   value,
		detail:  fmt.Sprintf("mood has averaged %.1f/10 across %d logged days", mean, len(scores)),
		present: true,
	}
}

// wearableAnomalySignal compares the last week of resting heart rate and HRV
// against the user's own earlier baseline. Absent fields never default; too
// little data on either side keeps the whole signal absent.
func wearableAnomalySignal(snapshot Snapshot, asOf time.Time) signal {
	asOfDay := dateOnly(asOf)
	recentStart := asOfDay.AddDate(0, 0, -7)

	var baselineRate, recentRate, baselineHRV, recentHRV []float64
	for _, summary := range snapshot.Wearables {
		day := dateOnly(summary.Date)
		if day.After(asOfDay) {
			continue
		}
		recent := !day.Before(recentStart)
		if summary.RestingHeartRate != nil {
			if recent {
				recentRate = append(recentRate, *summary.RestingHeartRate)
			} else {
				baselineRate = append(baselineRate, *summary.RestingHeartRate)
			}
		}
		if summary.HeartRateVariability != nil {
			if recent {
				recentHRV = append(recentHRV, *summary.HeartRateVariability)
			} else {
				baselineHRV = append(baselineHRV, *summary.HeartRateVariability)
			}
		}
	}

	value := 0.0
	detail := ""
	present := false
	if len(baselineRate) >= 7 && len(recentRate) >= 3 {
		present = true
		rise := meanFloats(recentRate) - meanFloats(baselineRate)
		if rise >= 5 {
			value = clamp01(rise / 15)
			detail = fmt.Sprintf("resting heart rate is up %.0f bpm on your baseline", rise)
		}
	}
	if len(baselineHRV) >= 7 && len(recentHRV) >= 3 {
		present = true
		baseline := meanFloats(baselineHRV)
		if baseline > 0 {
			drop := 1 - meanFloats(recentHRV)/baseline
			if drop >= 0.2 {
				if hrvValue := clamp01(drop * 2); hrvValue > value {
					value = hrvValue
					detail = fmt.Sprintf("heart rate variability is down %.0f%% on your baseline", drop*100)
				}
			}
		}
	}
	if !present {
		return signal{}
	}
	return signal{value: value, detail: detail, present: true}
}

// menstrualSeveritySignal measures how much symptom logging clusters on
// period days compared with the rest of the cycle.
func menstrualSeveritySignal(snapshot Snapshot, periodLength int) signal {
	var menstrual, other []float64
	for _, entry := range snapshot.Entries {
		dayInCycle, record, ok := snapshot.DayInCycle(entry.Date)
		if !ok {
			continue
		}
		phase, _ := PhaseForDay(dayInCycle, record.CycleLength, periodLength)
		count := float64(len(entry.Symptoms))
		if phase == PhaseMenstrual {
			menstrual = append(menstrual, count)
		} else {
			other = append(other, count)
		}
	}
	if len(menstrual) < 3 || len(other) < 3 {
		return signal{}
	}
	excess := meanFloats(menstrual) - meanFloats(other)
	if excess <= 0 {
		return signal{present: true}
	}
	return signal{
		value:   clamp01(excess / 3),
		detail:  fmt.Sprintf("symptoms cluster on period days (%.1f more per day than the rest of the cycle)", excess),
		present: true,
	}
}

// flowIntensitySignal normalizes the mean recorded flow intensity of recent
// cycles against the top of the logging scale.
func flowIntensitySignal(snapshot Snapshot, window int) signal {
	var values []float64
	for _, record := range snapshot.RecentCycles(window) {
		if record.AverageFlowIntensity != nil {
			values = append(values, *record.AverageFlowIntensity)
		}
	}
	if len(values) == 0 {
		return signal{}
	}
	mean := meanFloats(values)
	return signal{
		value:   clamp01(mean / models.MaxFlowIntensity),
		detail:  fmt.Sprintf("flow intensity has averaged %.1f of %d over recent cycles", mean, models.MaxFlowIntensity),
		present: true,
	}
}

// prolongedBleedingSignal scales with the longest recent period once it runs
// past a week.
func prolongedBleedingSignal(snapshot Snapshot, window int) signal {
	longest := 0
	observed := 0
	for _, record := range snapshot.RecentCycles(window) {
		if record.PeriodLength == nil {
			continue
		}
		observed++
		if *record.PeriodLength > longest {
			longest = *record.PeriodLength
		}
	}
	if observed == 0 {
		return signal{}
	}
	if longest <= 7 {
		return signal{present: true}
	}
	return signal{
		value:   clamp01(float64(longest-7) / 5),
		detail:  fmt.Sprintf("a recent period lasted %d days", longest),
		present: true,
	}
}

// amenorrheaRedFlag fires once 90+ days have passed since the last known
// period start with nothing newer logged.
func amenorrheaRedFlag(snapshot Snapshot, asOf time.Time) (string, bool) {
	anchor, ok := snapshot.LastPeriodStart()
	if !ok {
		return "", false
	}
	gap := daysBetween(anchor, dateOnly(asOf))
	if gap < amenorrheaGapDays {
		return "", false
	}
	return fmt.Sprintf("no period logged for %d days", gap), true
}

func prolongedBleedingRedFlag(snapshot Snapshot, window int) (string, bool) {
	for _, record := range snapshot.RecentCycles(window) {
		if record.PeriodLength != nil && *record.PeriodLength >= prolongedBleedingDays {
			return fmt.Sprintf("bleeding lasted %d days or longer", *record.PeriodLength), true
		}
	}
	return "", false
}

func recentSymptoms(snapshot Snapshot, asOf time.Time) []string {
	asOfDay := dateOnly(asOf)
	cutoff := asOfDay.AddDate(0, 0, -recentSymptomWindowDays)
	seen := make(map[string]bool)
	var symptoms []string
	for _, entry := range snapshot.Entries {
		day := dateOnly(entry.Date)
		if day.Before(cutoff) || day.After(asOfDay) {
			continue
		}
		for _, symptom := range entry.Symptoms {
			normalized := strings.ToLower(strings.TrimSpace(symptom))
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			symptoms = append(symptoms, normalized)
		}
	}
	return symptoms
}
