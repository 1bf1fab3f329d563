package models

import "time"

// CalendarSelectFields is the projection requested from the calendar provider.
const CalendarSelectFields = "subject,start,end,showAs"

// CalendarRange is a closed time interval for a calendar view query.
type CalendarRange struct {
	Start time.Time
	End   time.Time
}

// DayRange spans the whole UTC calendar day of date.
func DayRange(date time.Time) CalendarRange {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return CalendarRange{
		Start: start,
		End:   start.Add(24*time.Hour - time.Nanosecond),
	}
}
