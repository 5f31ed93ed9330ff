package services

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrFromDateInvalid = errors.New("invalid from date")
	ErrToDateInvalid   = errors.New("invalid to date")
	ErrRangeInverted   = errors.New("date range inverted")
)

// ParseDateRange parses optional from/to day strings ("2006-01-02") into
// normalized midnight bounds. Either side may be empty. An inverted range is
// a caller contract violation, not a data-quality condition.
func ParseDateRange(rawFrom string, rawTo string, location *time.Location) (*time.Time, *time.Time, error) {
	fromRaw := strings.TrimSpace(rawFrom)
	toRaw := strings.TrimSpace(rawTo)

	var from *time.Time
	if fromRaw != "" {
		parsedFrom, err := time.ParseInLocation("2006-01-02", fromRaw, location)
		if err != nil {
			return nil, nil, ErrFromDateInvalid
		}
		normalizedFrom := DateAtLocation(parsedFrom, location)
		from = &normalizedFrom
	}

	var to *time.Time
	if toRaw != "" {
		parsedTo, err := time.ParseInLocation("2006-01-02", toRaw, location)
		if err != nil {
			return nil, nil, ErrToDateInvalid
		}
		normalizedTo := DateAtLocation(parsedTo, location)
		to = &normalizedTo
	}

	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, ErrRangeInverted
	}

	return from, to, nil
}
