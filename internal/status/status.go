package status

import (
	"hospital-admin-server/internal/models"
)

// displayAliases is the single source of truth for the raw<->display
// mapping. Both the transition engine and any rendering code consult
// this table; raw values are what the store and endpoints use.
var displayAliases = map[models.AppointmentStatus]string{
	models.StatusCheckedIn: "IN_QUEUE",
	models.StatusNoShow:    "SKIPPED",
}

var rawByAlias = func() map[string]models.AppointmentStatus {
	m := make(map[string]models.AppointmentStatus, len(displayAliases))
	for raw, alias := range displayAliases {
		m[alias] = raw
	}
	return m
}()

// transitions is the directed transition graph. Terminal states have
// no entry. Order matters: it is the order options are offered in.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:    {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:  {models.StatusCheckedIn, models.StatusCancelled, models.StatusNoShow},
	models.StatusCheckedIn:  {models.StatusInProgress, models.StatusCompleted, models.StatusCancelled, models.StatusNoShow},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled},
}

// Display returns the user-facing label for a raw status.
func Display(s models.AppointmentStatus) string {
	if alias, ok := displayAliases[s]; ok {
		return alias
	}
	return string(s)
}

// Normalize maps a status received from a caller to its raw backend
// value, accepting display aliases as input too. ok is false for values
// outside the status vocabulary.
func Normalize(value string) (models.AppointmentStatus, bool) {
	if raw, ok := rawByAlias[value]; ok {
		return raw, true
	}
	s := models.AppointmentStatus(value)
	switch s {
	case models.StatusPending, models.StatusConfirmed, models.StatusCheckedIn,
		models.StatusInProgress, models.StatusCompleted, models.StatusCancelled,
		models.StatusNoShow:
		return s, true
	}
	return "", false
}

// AllowedNext returns the raw statuses legally reachable from current.
// Terminal states yield an empty slice.
func AllowedNext(current models.AppointmentStatus) []models.AppointmentStatus {
	next := transitions[current]
	out := make([]models.AppointmentStatus, len(next))
	copy(out, next)
	return out
}

// AllowedNextDisplay returns the reachable statuses translated through
// the display-alias table, in offer order.
func AllowedNextDisplay(current models.AppointmentStatus) []string {
	next := transitions[current]
	out := make([]string, len(next))
	for i, s := range next {
		out[i] = Display(s)
	}
	return out
}

// CanTransition reports whether from -> to is an edge of the graph.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s models.AppointmentStatus) bool {
	return len(transitions[s]) == 0
}
