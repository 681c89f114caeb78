package models

import "fmt"

// InsufficientDataError reports that a series is too short for the requested
// window. Returned by CandleSeries windowing and by single extraction; the
// batch paths drop short windows instead of failing.
type InsufficientDataError struct {
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need %d candles, got %d", e.Required, e.Actual)
}
