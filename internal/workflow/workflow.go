// Package workflow is the finite state machine governing the quotation
// lifecycle. All transitions live in one table; anything not in the table
// fails with InvalidStateError, never a silent no-op.
package workflow

import (
	"github.com/OG0914/cost-management-sub000/internal/shared"
)

// Status enumerates quotation lifecycle states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Action enumerates workflow actions. Submit covers both first submission
// and resubmission after rejection.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
	},
	StatusRejected: {
		ActionSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
}

// Next resolves the target state for an action, or InvalidStateError naming
// the current state and the attempted action.
func Next(current Status, action Action) (Status, error) {
	if to, ok := transitions[current][action]; ok {
		return to, nil
	}
	return "", &shared.InvalidStateError{Current: string(current), Action: string(action)}
}

// Guard checks whether the actor may trigger the action on a quotation
// created by createdBy. Reject additionally requires a non-empty reason.
func Guard(action Action, actor shared.Actor, createdBy int64, reason string) error {
	switch action {
	case ActionSubmit:
		if !actor.Owns(createdBy) && !actor.IsAdmin() {
			return shared.ErrForbidden
		}
	case ActionApprove, ActionReject:
		if !actor.CanReview() {
			return shared.ErrForbidden
		}
		if action == ActionReject && reason == "" {
			return &shared.ValidationError{Field: "reason", Reason: "rejection requires a reason"}
		}
	default:
		return &shared.ValidationError{Field: "action", Reason: "unknown action " + string(action)}
	}
	return nil
}

// Editable reports whether a full item replace is permitted in the state.
func Editable(current Status) bool {
	return current == StatusDraft || current == StatusRejected
}

// EnsureEditable returns InvalidStateError when the quotation may not be edited.
func EnsureEditable(current Status) error {
	if !Editable(current) {
		return &shared.InvalidStateError{Current: string(current), Action: "edit"}
	}
	return nil
}

// EnsurePromotable returns InvalidStateError unless the quotation is approved;
// only approved quotations may become standard-cost candidates.
func EnsurePromotable(current Status) error {
	if current != StatusApproved {
		return &shared.InvalidStateError{Current: string(current), Action: "promote"}
	}
	return nil
}

// EventAction maps a successful transition onto the review trail action.
func EventAction(from Status, action Action) shared.ReviewAction {
	switch action {
	case ActionApprove:
		return shared.ReviewApproved
	case ActionReject:
		return shared.ReviewRejected
	case ActionSubmit:
		if from == StatusRejected {
			return shared.ReviewResubmitted
		}
		return shared.ReviewSubmitted
	}
	return ""
}
