package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by reads issued before the first successful load.
	ErrNotLoaded = errors.New("no dataset loaded")
	// ErrInvalidHorizon is returned when a forecast horizon is out of range.
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
	// ErrUnknownDimension is returned for a grouping dimension the engine does not know.
	ErrUnknownDimension = errors.New("unknown dimension")
)

// RowError describes one rejected field of one input row.
type RowError struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError rejects a whole load. Rows lists every offending field.
type ValidationError struct {
	Rows []RowError `json:"rows"`
}

func (e *ValidationError) Error() string {
	if len(e.Rows) == 0 {
		return "validation failed"
	}
	first := e.Rows[0]
	if first.Row < 0 {
		return fmt.Sprintf("validation failed: %s %s", first.Field, first.Reason)
	}
	return fmt.Sprintf("validation failed for %d field(s); first: row %d: %s %s",
		len(e.Rows), first.Row, first.Field, first.Reason)
}

// NoDataError reports an empty selection where a result is required.
type NoDataError struct {
	Country string
	Role    string
}

func (e *NoDataError) Error() string {
	switch {
	case e.Country != "" && e.Role != "":
		return fmt.Sprintf("no data for country %q and role %q", e.Country, e.Role)
	case e.Country != "":
		return fmt.Sprintf("no data for country %q", e.Country)
	case e.Role != "":
		return fmt.Sprintf("no data for role %q", e.Role)
	}
	return "no data for selection"
}
