package api

// TimeInterval specifies the bar frequency to query for end of day data.
type TimeInterval uint8

const (
	TimeIntervalDaily TimeInterval = iota
)

func (t TimeInterval) Name() string {
	switch t {
	case TimeIntervalDaily:
		return "TimeIntervalDaily"
	default:
		return ""
	}
}

// Interval is the interval query value understood by the yahoo chart api.
func (t TimeInterval) Interval() string {
	switch t {
	case TimeIntervalDaily:
		return "1d"
	default:
		return ""
	}
}
