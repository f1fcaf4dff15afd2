package transform

import "time"

// startTime converts epoch milliseconds to whole epoch seconds, rounding toward
// negative infinity.
func startTime(tsMillis int64) int64 {
	sec := tsMillis / 1000
	if tsMillis%1000 != 0 && tsMillis < 0 {
		sec--
	}
	return sec
}

// timeParts breaks an epoch-seconds value into calendar fields in UTC.
func timeParts(sec int64) TimeRow {
	t := time.Unix(sec, 0).UTC()
	_, week := t.ISOWeek()
	return TimeRow{
		StartTime: sec,
		Hour:      int32(t.Hour()),
		Day:       int32(t.Day()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   t.Weekday().String(),
	}
}
