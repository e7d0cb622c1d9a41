package session

import (
	"fmt"
	"slices"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Actor is the side of the booking requesting a status change.
type Actor string

const (
	ActorStudent Actor = "student"
	ActorTutor   Actor = "tutor"
)

// vocabulary lists the statuses each actor may ever ask for.
var vocabulary = map[Actor][]Status{
	ActorStudent: {StatusCancelled},
	ActorTutor:   {StatusConfirmed, StatusCancelled, StatusCompleted},
}

var transitions = map[Status]map[Actor][]Status{
	StatusPending: {
		ActorStudent: {StatusCancelled},
		ActorTutor:   {StatusConfirmed, StatusCancelled},
	},
	StatusConfirmed: {
		ActorTutor: {StatusCompleted, StatusCancelled},
	},
}

// CheckRequest rejects statuses outside the actor's vocabulary.
func CheckRequest(actor Actor, next Status) error {
	allowed, ok := vocabulary[actor]
	if !ok {
		return apperror.Forbidden("only the student or tutor of a session may change it")
	}
	if !slices.Contains(allowed, next) {
		return apperror.Validation(fmt.Sprintf("%s may set status to one of %v", actor, allowed),
			apperror.FieldError{Field: "status", Message: "not allowed for " + string(actor)})
	}
	return nil
}

// CheckTransition validates moving a session from current to next on behalf
// of actor. Completed and cancelled sessions never change again.
func CheckTransition(current Status, actor Actor, next Status) error {
	if err := CheckRequest(actor, next); err != nil {
		return err
	}
	if current.Terminal() {
		return apperror.InvalidTransition(fmt.Sprintf("session is already %s", current))
	}
	if !slices.Contains(transitions[current][actor], next) {
		return apperror.InvalidTransition(fmt.Sprintf("%s cannot move a %s session to %s", actor, current, next))
	}
	return nil
}

// Apply sets the new status and its side effects. Callers run
// CheckTransition first.
func (s *Session) Apply(next Status) {
	s.Status = next
	if next == StatusCompleted {
		s.PaymentStatus = PaymentCompleted
	}
}

// OwnedBy reports whether userID is the session's participant on the
// actor's side.
func (s *Session) OwnedBy(actor Actor, userID uuid.UUID) bool {
	switch actor {
	case ActorStudent:
		return s.StudentID == userID
	case ActorTutor:
		return s.TutorID == userID
	}
	return false
}
