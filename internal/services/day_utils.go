package services

import (
	"strings"
	"time"

	"github.com/ronospace/flowiq/internal/models"
)

// DateAtLocation truncates a timestamp to midnight in the given location.
// Every persisted date column stores exactly this form, so range queries
// stay half-open and timezone-stable.
func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DayRange returns the half-open [start, end) interval covering one calendar
// day in the given location.
func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}

// UserLocation resolves a user's stored timezone, falling back to UTC when it
// is empty or unknown.
func UserLocation(user models.User) *time.Location {
	name := strings.TrimSpace(user.TimeZone)
	if name == "" {
		return time.UTC
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return location
}

// EntryHasData reports whether a daily entry carries anything worth keeping.
func EntryHasData(entry models.DailyEntry) bool {
	if len(entry.Symptoms) > 0 {
		return true
	}
	if entry.MoodScore != nil {
		return true
	}
	if entry.FlowIntensity != nil && *entry.FlowIntensity > 0 {
		return true
	}
	return strings.TrimSpace(entry.Notes) != ""
}

// NormalizeSymptoms trims, lowercases and dedupes symptom tags, dropping
// empties, preserving first-seen order. Keyword screening compares lowercase
// tags, so normalization happens once at the write boundary.
func NormalizeSymptoms(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	normalized := make([]string, 0, len(raw))
	for _, tag := range raw {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" {
			continue
		}
		if _, duplicate := seen[cleaned]; duplicate {
			continue
		}
		seen[cleaned] = struct{}{}
		normalized = append(normalized, cleaned)
	}
	return normalized
}

func daysBetween(from time.Time, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
