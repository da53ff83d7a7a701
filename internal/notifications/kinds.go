package notifications

// Kind is the event an appointment notification reports.
type Kind string

const (
	KindBooked      Kind = "booked"
	KindApproved    Kind = "approved"
	KindRejected    Kind = "rejected"
	KindCancelled   Kind = "cancelled"
	KindRescheduled Kind = "rescheduled"
	KindReminder    Kind = "reminder"
)

// Kinds lists every notification kind.
var Kinds = []Kind{KindBooked, KindApproved, KindRejected, KindCancelled, KindRescheduled, KindReminder}

// IsValid checks if the kind is a known one.
func (k Kind) IsValid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}
