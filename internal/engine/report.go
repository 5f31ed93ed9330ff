package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options tunes the engine. Zero values fall back to the bundled defaults.
type Options struct {
	StatisticsWindow int
	LutealPhaseDays  int
}

func (options Options) withDefaults() Options {
	if options.StatisticsWindow <= 0 {
		options.StatisticsWindow = DefaultStatisticsWindow
	}
	if options.LutealPhaseDays <= 0 {
		options.LutealPhaseDays = DefaultLutealPhaseDays
	}
	return options
}

// Severity bands for the health score. An assessment below the low band is
// not active and costs nothing.
const (
	highRiskBand   = 0.7
	mediumRiskBand = 0.4
	lowRiskBand    = 0.15
)

// ForecastReport is the complete engine output for one user at one date.
type ForecastReport struct {
	ReportID           string            `json:"report_id"`
	UserID             uint              `json:"user_id"`
	AsOf               time.Time         `json:"as_of"`
	GeneratedAt        time.Time         `json:"generated_at"`
	CurrentCycleDay    int               `json:"current_cycle_day"`
	CurrentPhase       Phase             `json:"current_phase"`
	Prediction         PredictionResult  `json:"prediction"`
	RiskAssessments    []RiskAssessment  `json:"risk_assessments"`
	Patterns           []DetectedPattern `json:"patterns"`
	OverallHealthScore float64           `json:"overall_health_score"`
	DataQualityIssues  []string          `json:"data_quality_issues,omitempty"`
}

// Engine ties the pure computations together behind one façade. It keeps no
// per-user state: every call works off the snapshot it is handed, so
// concurrent report builds are safe.
type Engine struct {
	options Options
	logger  *logrus.Logger
}

func New(logger *logrus.Logger, options Options) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{options: options.withDefaults(), logger: logger}
}

// BuildReport assembles the full report from a snapshot. Missing optional
// inputs never fail a report: absent signals narrow confidence and data
// problems surface as quality issues on the result.
func (engine *Engine) BuildReport(snapshot Snapshot, userID uint, asOf time.Time) ForecastReport {
	asOf = dateOnly(asOf)
	report := ForecastReport{
		ReportID:    uuid.NewString(),
		UserID:      userID,
		AsOf:        asOf,
		GeneratedAt: time.Now().UTC(),
	}

	report.Prediction = Predict(snapshot, engine.options)

	periodLength := snapshot.PeriodLengthEstimate(engine.options.StatisticsWindow)
	phase, dayInCycle, overrun := snapshot.CurrentPhase(asOf, report.Prediction.PredictedCycleLength, periodLength)
	report.CurrentPhase = phase
	report.CurrentCycleDay = dayInCycle

	issues := append([]string(nil), snapshot.Issues...)
	if overrun {
		report.Prediction.Confidence *= 0.9
		issues = append(issues, "current cycle is running past its predicted length")
	}

	report.RiskAssessments = AssessAllConditions(snapshot, asOf, engine.options)
	report.Patterns = DetectPatterns(snapshot, engine.options)
	report.OverallHealthScore = healthScore(report.RiskAssessments)
	report.DataQualityIssues = issues

	if len(issues) > 0 {
		engine.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"issues":  len(issues),
		}).Warn("report generated with data-quality issues")
	}
	return report
}

// Predict runs the forecast portion alone with the engine's options.
func (engine *Engine) Predict(snapshot Snapshot) PredictionResult {
	return Predict(snapshot, engine.options)
}

// AssessConditions screens every condition without building a full report.
func (engine *Engine) AssessConditions(snapshot Snapshot, asOf time.Time) []RiskAssessment {
	return AssessAllConditions(snapshot, dateOnly(asOf), engine.options)
}

// AssessCondition screens one condition; false for an unknown identifier.
func (engine *Engine) AssessCondition(snapshot Snapshot, asOf time.Time, conditionID string) (RiskAssessment, bool) {
	return AssessCondition(snapshot, dateOnly(asOf), conditionID, engine.options)
}

func (engine *Engine) DetectPatterns(snapshot Snapshot) []DetectedPattern {
	return DetectPatterns(snapshot, engine.options)
}

// healthScore starts at 100 and pays per active assessment, scaled by its
// severity band, floored at zero.
func healthScore(assessments []RiskAssessment) float64 {
	score := 100.0
	for _, assessment := range assessments {
		risk := assessment.RiskScore
		switch {
		case risk >= highRiskBand:
			score -= 20 * risk
		case risk >= mediumRiskBand:
			score -= 10 * risk
		case risk >= lowRiskBand:
			score -= 5 * risk
		}
	}
	if score < 0 {
		return 0
	}
	return score
}
