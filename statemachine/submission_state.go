package statemachine

import (
	"strings"

	"heritage-api/apperr"
	"heritage-api/models"
)

// Actor identifies who drives a status change.
type Actor string

const (
	ActorSystem Actor = "system"
	ActorOwner  Actor = "owner"
	ActorAdmin  Actor = "admin"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.Status `json:"from"`
	To    models.Status `json:"to"`
	Actor Actor         `json:"actor"`
	Event string        `json:"event"`
}

// InitialStatus is assigned to every new submission.
const InitialStatus = models.StatusApproved

// validTransitions is the authoritative state machine definition
var validTransitions = func() []Transition {
	ts := []Transition{
		// An edit by the owner sends an approved submission back to review
		{From: models.StatusApproved, To: models.StatusPending, Actor: ActorOwner, Event: "owner edit"},
	}
	// Admins may set any status from any status
	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			if from == to {
				continue
			}
			ts = append(ts, Transition{From: from, To: to, Actor: ActorAdmin, Event: "review"})
		}
	}
	return ts
}()

type transitionKey struct {
	From  models.Status
	To    models.Status
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// AfterOwnerEdit returns the status a submission takes when its owner
// edits it. Only Approved changes; every other status is left as is.
func AfterOwnerEdit(current models.Status) models.Status {
	if current == models.StatusApproved {
		return models.StatusPending
	}
	return current
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.Status) []models.Status {
	var nexts []models.Status
	seen := map[models.Status]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// Keeping the current status is always allowed.
func CanTransition(from, to models.Status, actor Actor) error {
	if _, ok := models.ParseStatus(string(to)); !ok {
		return apperr.InvalidOperation("Invalid status: " + string(to))
	}
	if from == to || transitionMap[transitionKey{from, to, actor}] {
		return nil
	}
	return apperr.InvalidOperation(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for actor '" + string(actor) + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.Status) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
