package appointments

import (
	"strconv"
	"time"
	"unicode/utf8"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/schedule"
)

const monthLayout = "2006-01"

// Period is a range of calendar dates, from inclusive and to exclusive.
type Period struct {
	From time.Time
	To   time.Time
}

// ParsePeriod reads a YYYY-MM month or a YYYY year, the month winning when both are given.
// Without any of them, the period is the month of today.
func ParsePeriod(month, year string, today time.Time) (Period, error) {
	switch {
	case month != "":
		start, err := time.Parse(monthLayout, month)
		if err != nil {
			return Period{}, apierrors.NewValidationError("month", "invalid month, expected YYYY-MM")
		}
		return Period{From: start, To: start.AddDate(0, 1, 0)}, nil
	case year != "":
		value, err := strconv.Atoi(year)
		if err != nil || value < 1 || value > 9999 {
			return Period{}, apierrors.NewValidationError("year", "invalid year, expected YYYY")
		}
		start := time.Date(value, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Period{From: start, To: start.AddDate(1, 0, 0)}, nil
	}
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: start, To: start.AddDate(0, 1, 0)}, nil
}

// truncate cuts the text to the given number of characters, marking the cut with an ellipsis.
func truncate(text string, length int) string {
	if utf8.RuneCountInString(text) <= length {
		return text
	}
	return string([]rune(text)[:length]) + "..."
}

// buildCalendar groups the appointments, sorted by date and slot, by date and sums them up
// per status.
func buildCalendar(period Period, appointments []*Appointment) *Calendar {
	calendar := &Calendar{
		From:    period.From.Format(schedule.DateLayout),
		To:      period.To.AddDate(0, 0, -1).Format(schedule.DateLayout),
		Days:    []CalendarDay{},
		Summary: make(map[Status]int, len(Statuses)),
		Total:   len(appointments),
	}
	for _, status := range Statuses {
		calendar.Summary[status] = 0
	}
	for _, v := range appointments {
		date := v.Date.Format(schedule.DateLayout)
		if n := len(calendar.Days); n == 0 || calendar.Days[n-1].Date != date {
			calendar.Days = append(calendar.Days, CalendarDay{Date: date, Appointments: []*CalendarEntry{}})
		}
		day := &calendar.Days[len(calendar.Days)-1]
		day.Appointments = append(day.Appointments, &CalendarEntry{
			UUID:        v.UUID,
			PatientName: v.PatientName,
			TimeSlot:    v.TimeSlot,
			Mode:        v.Mode,
			Urgency:     v.Urgency,
			Status:      v.Status,
			Symptoms:    truncate(v.Symptoms, calendarSymptomsLength),
		})
		calendar.Summary[v.Status]++
	}
	return calendar
}
