package model

import "time"

// Timeframe is one of the six candle intervals the candle store and
// indicator kernel operate on.
type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	H1  Timeframe = "H1"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
)

// Duration returns the timeframe's bucket width.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case H1:
		return time.Hour
	case H4:
		return 4 * time.Hour
	case D1:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Label is the human-readable name for the timeframe.
func (tf Timeframe) Label() string {
	switch tf {
	case M1:
		return "1 Minute"
	case M5:
		return "5 Minutes"
	case M15:
		return "15 Minutes"
	case H1:
		return "1 Hour"
	case H4:
		return "4 Hours"
	case D1:
		return "1 Day"
	default:
		return "unknown"
	}
}

// AllTimeframes returns the six supported timeframes, coarsest last —
// the order the multi-timeframe analyzer iterates in.
func AllTimeframes() []Timeframe {
	return []Timeframe{M1, M5, M15, H1, H4, D1}
}

// AlignedOpenTime floors t to the start of the timeframe bucket it falls in.
func (tf Timeframe) AlignedOpenTime(t time.Time) time.Time {
	d := tf.Duration()
	if d <= 0 {
		return t
	}
	return t.UTC().Truncate(d)
}
