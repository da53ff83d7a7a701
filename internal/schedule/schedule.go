// Package schedule contains the weekly availability model of a doctor and the rules that
// turn it into bookable slots for a calendar date.
package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout used to exchange calendar dates.
const DateLayout = "2006-01-02"

// DayOfWeek is one of the working days a doctor may open in the weekly template.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
)

// WorkingDays lists the valid DayOfWeek values in week order.
var WorkingDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday}

// IsValid checks if the day belongs to the working days.
func (d DayOfWeek) IsValid() bool {
	for _, v := range WorkingDays {
		if v == d {
			return true
		}
	}
	return false
}

// DayOf returns the DayOfWeek of the given date. Weekends return an empty DayOfWeek.
func DayOf(date time.Time) DayOfWeek {
	day := DayOfWeek(strings.ToLower(date.Weekday().String()))
	if !day.IsValid() {
		return ""
	}
	return day
}

// TimeLabel is a fixed format time of day, e.g. "09:00".
type TimeLabel string

// TimeLabels lists the valid TimeLabel values, every 30 minutes from 09:00 to 18:30.
var TimeLabels = buildTimeLabels(9, 19, 30)

func buildTimeLabels(startHour, endHour, stepMinutes int) []TimeLabel {
	labels := make([]TimeLabel, 0, (endHour-startHour)*60/stepMinutes)
	for minutes := startHour * 60; minutes < endHour*60; minutes += stepMinutes {
		labels = append(labels, TimeLabel(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)))
	}
	return labels
}

// IsValid checks if the label belongs to the closed enumeration of time labels.
func (t TimeLabel) IsValid() bool {
	for _, v := range TimeLabels {
		if v == t {
			return true
		}
	}
	return false
}

// DayAvailability holds the ordered time labels a doctor offers on a working day.
type DayAvailability struct {
	Day       DayOfWeek   `json:"day"`
	TimeSlots []TimeLabel `json:"time_slots"`
}

// Availability is the weekly template of a doctor plus the dates blocked on top of it.
type Availability struct {
	Days         []DayAvailability `json:"available_slots"`
	BlockedDates []time.Time       `json:"blocked_dates"`
}

// MarshalJSON writes the blocked dates as YYYY-MM-DD dates.
func (a Availability) MarshalJSON() ([]byte, error) {
	days := a.Days
	if days == nil {
		days = []DayAvailability{}
	}
	dates := make([]string, 0, len(a.BlockedDates))
	for _, v := range a.BlockedDates {
		dates = append(dates, v.Format(DateLayout))
	}
	return json.Marshal(struct {
		Days         []DayAvailability `json:"available_slots"`
		BlockedDates []string          `json:"blocked_dates"`
	}{Days: days, BlockedDates: dates})
}

// ForDay returns the template entry of the given day, if the doctor works on it.
func (a Availability) ForDay(day DayOfWeek) (DayAvailability, bool) {
	for _, v := range a.Days {
		if v.Day == day {
			return v, true
		}
	}
	return DayAvailability{}, false
}

// IsBlocked checks if the given date is one of the blocked dates, ignoring time of day.
func (a Availability) IsBlocked(date time.Time) bool {
	for _, v := range a.BlockedDates {
		if SameDay(v, date) {
			return true
		}
	}
	return false
}

// Offers checks if the template exposes the given label on the weekday of the given date.
func (a Availability) Offers(date time.Time, label TimeLabel) bool {
	entry, ok := a.ForDay(DayOf(date))
	if !ok {
		return false
	}
	for _, v := range entry.TimeSlots {
		if v == label {
			return true
		}
	}
	return false
}

// Validate checks the template against the closed enumerations and the uniqueness rules:
// a day appears once, and a label appears once within its day.
func (a Availability) Validate() error {
	days := make(map[DayOfWeek]bool, len(a.Days))
	for _, entry := range a.Days {
		if !entry.Day.IsValid() {
			return fmt.Errorf("invalid day: %s", entry.Day)
		}
		if days[entry.Day] {
			return fmt.Errorf("duplicated day: %s", entry.Day)
		}
		days[entry.Day] = true
		labels := make(map[TimeLabel]bool, len(entry.TimeSlots))
		for _, label := range entry.TimeSlots {
			if !label.IsValid() {
				return fmt.Errorf("invalid time slot: %s", label)
			}
			if labels[label] {
				return fmt.Errorf("duplicated time slot %s on %s", label, entry.Day)
			}
			labels[label] = true
		}
	}
	return nil
}

// StartOfDay normalizes the given time to the start of its calendar day, keeping the
// calendar fields and dropping the time of day and zone offset.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayBounds returns the inclusive start and exclusive end of the calendar day of t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// SameDay checks if both times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(date), nil
}

// Today returns the current calendar date in the given location.
func Today(now time.Time, location *time.Location) time.Time {
	return StartOfDay(now.In(location))
}
