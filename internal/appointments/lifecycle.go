package appointments

// Actor is the side of an appointment acting on it.
type Actor string

const (
	ActorPatient Actor = "patient"
	ActorDoctor  Actor = "doctor"
)

// transitions lists, per actor, the statuses reachable from each non terminal status.
// Rejected, cancelled and completed appointments are terminal.
var transitions = map[Actor]map[Status][]Status{
	ActorPatient: {
		StatusPending:  {StatusCancelled},
		StatusApproved: {StatusCancelled},
	},
	ActorDoctor: {
		StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
		StatusApproved: {StatusCompleted, StatusCancelled, StatusRejected},
	},
}

// Transition checks if the actor may move an appointment from one status to another,
// returning an invalid transition error otherwise.
func Transition(actor Actor, from, to Status) error {
	for _, v := range transitions[actor][from] {
		if v == to {
			return nil
		}
	}
	return newInvalidTransitionError(transitionReason(from, to))
}

// IsTerminal checks if no actor can move an appointment out of the status.
func IsTerminal(status Status) bool {
	for _, byStatus := range transitions {
		if len(byStatus[status]) > 0 {
			return false
		}
	}
	return true
}
