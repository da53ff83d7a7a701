package schedule

import "time"

// DefaultMaxAppointmentsPerDay bounds the active appointments of a doctor on a date.
const DefaultMaxAppointmentsPerDay = 15

// Reasons explaining why no slot, or not the requested slot, can be booked.
const (
	ReasonNotWorkingDay = "doctor is not available on this day"
	ReasonBlockedDate   = "doctor is not available on this date"
	ReasonDailyCap      = "doctor has reached maximum appointments for this day"
	ReasonNotOffered    = "doctor is not available at this time"
	ReasonSlotTaken     = "this time slot is already booked"
)

// Occupancy is the load of a doctor's date, computed from its active appointments.
type Occupancy interface {
	// CountActive counts active appointments on the date.
	CountActive() (int, error)

	// TakenSlots lists the labels held by active appointments on the date.
	TakenSlots() ([]TimeLabel, error)
}

// Resolution is the outcome of resolving the bookable slots of a date.
type Resolution struct {
	Date      time.Time   `json:"-"`
	Available []TimeLabel `json:"available_slots"`
	Total     int         `json:"total_slots"`
	Booked    int         `json:"booked_slots"`
	Remaining int         `json:"remaining_slots"`
	Reason    string      `json:"message,omitempty"`
}

// Has checks if the label is among the available slots.
func (r Resolution) Has(label TimeLabel) bool {
	for _, v := range r.Available {
		if v == label {
			return true
		}
	}
	return false
}

// Resolve computes the bookable slots of the given date. The rules are applied in order and
// each one short-circuits the following: working day, blocked date, daily cap, taken slots.
// Occupancy is only consulted when the date is open, so closed dates touch no storage.
func Resolve(availability Availability, date time.Time, occupancy Occupancy, maxPerDay int) (Resolution, error) {
	date = StartOfDay(date)
	resolution := Resolution{Date: date, Available: []TimeLabel{}}

	entry, works := availability.ForDay(DayOf(date))
	if !works {
		resolution.Reason = ReasonNotWorkingDay
		return resolution, nil
	}
	resolution.Total = len(entry.TimeSlots)

	if availability.IsBlocked(date) {
		resolution.Reason = ReasonBlockedDate
		return resolution, nil
	}

	count, err := occupancy.CountActive()
	if err != nil {
		return Resolution{}, err
	}
	if count >= maxPerDay {
		resolution.Booked = count
		resolution.Reason = ReasonDailyCap
		return resolution, nil
	}

	taken, err := occupancy.TakenSlots()
	if err != nil {
		return Resolution{}, err
	}
	used := make(map[TimeLabel]bool, len(taken))
	for _, v := range taken {
		used[v] = true
	}
	for _, v := range entry.TimeSlots {
		if !used[v] {
			resolution.Available = append(resolution.Available, v)
		}
	}
	resolution.Booked = len(taken)
	resolution.Remaining = len(resolution.Available)
	return resolution, nil
}

// RefusalReason explains why the label cannot be booked given a resolution, or returns an
// empty string when it can.
func RefusalReason(availability Availability, resolution Resolution, label TimeLabel) string {
	if resolution.Reason != "" {
		return resolution.Reason
	}
	if !availability.Offers(resolution.Date, label) {
		return ReasonNotOffered
	}
	if !resolution.Has(label) {
		return ReasonSlotTaken
	}
	return ""
}
