package engine

import (
	"time"

	"github.com/ronospace/flowiq/internal/models"
)

// Phase is one of the four canonical cycle phases.
type Phase string

const (
	PhaseMenstrual  Phase = "menstrual"
	PhaseFollicular Phase = "follicular"
	PhaseOvulatory  Phase = "ovulatory"
	PhaseLuteal     Phase = "luteal"

	// PhaseUnknown is reported when no anchor date exists at all.
	PhaseUnknown Phase = "unknown"
)

// PhaseForDay classifies a 1-based day offset within a cycle:
// menstrual for the bleeding days, follicular through the cycle midpoint,
// ovulatory for the three days after it, luteal for the rest. A day past the
// cycle length clamps to luteal and the overrun flag tells callers to reduce
// their confidence.
func PhaseForDay(dayInCycle int, cycleLength int, periodLength int) (Phase, bool) {
	if cycleLength < 1 {
		cycleLength = models.DefaultCycleLength
	}
	if periodLength < 1 {
		periodLength = models.DefaultPeriodLength
	}
	if dayInCycle < 1 {
		dayInCycle = 1
	}
	if dayInCycle > cycleLength {
		return PhaseLuteal, true
	}

	midpoint := cycleLength / 2
	switch {
	case dayInCycle <= periodLength:
		return PhaseMenstrual, false
	case dayInCycle <= midpoint:
		return PhaseFollicular, false
	case dayInCycle <= midpoint+3:
		return PhaseOvulatory, false
	default:
		return PhaseLuteal, false
	}
}

// CurrentPhase classifies the phase a user is in on the given day, using the
// snapshot's anchor date and the best available cycle length estimate.
func (snapshot Snapshot) CurrentPhase(day time.Time, cycleLength int, periodLength int) (Phase, int, bool) {
	anchor, ok := snapshot.LastPeriodStart()
	if !ok {
		return PhaseUnknown, 0, false
	}
	dayInCycle := daysBetween(anchor, dateOnly(day)) + 1
	if dayInCycle < 1 {
		dayInCycle = 1
	}
	phase, overrun := PhaseForDay(dayInCycle, cycleLength, periodLength)
	return phase, dayInCycle, overrun
}
