package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OG0914/cost-management-sub000/internal/shared"
)

func TestCanonicalApprovalPath(t *testing.T) {
	status := StatusDraft

	next, err := Next(status, ActionSubmit)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, next)

	next, err = Next(next, ActionApprove)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, next)
}

func TestRejectResubmitApprovePath(t *testing.T) {
	status := StatusDraft
	for _, step := range []struct {
		action Action
		want   Status
	}{
		{ActionSubmit, StatusSubmitted},
		{ActionReject, StatusRejected},
		{ActionSubmit, StatusSubmitted},
		{ActionApprove, StatusApproved},
	} {
		next, err := Next(status, step.action)
		require.NoError(t, err)
		require.Equal(t, step.want, next)
		status = next
	}
}

func TestInvalidTransitionsNameStateAndAction(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
	}{
		{StatusDraft, ActionApprove},
		{StatusDraft, ActionReject},
		{StatusApproved, ActionSubmit},
		{StatusApproved, ActionApprove},
		{StatusRejected, ActionApprove},
		{StatusSubmitted, ActionSubmit},
	}
	for _, tc := range cases {
		_, err := Next(tc.from, tc.action)
		var stateErr *shared.InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		require.Equal(t, string(tc.from), stateErr.Current)
		require.Equal(t, string(tc.action), stateErr.Action)
	}
}

func TestGuardSubmitRequiresOwnerOrAdmin(t *testing.T) {
	owner := shared.Actor{ID: 7, Role: shared.RoleUser}
	stranger := shared.Actor{ID: 8, Role: shared.RoleUser}
	admin := shared.Actor{ID: 9, Role: shared.RoleAdmin}

	require.NoError(t, Guard(ActionSubmit, owner, 7, ""))
	require.ErrorIs(t, Guard(ActionSubmit, stranger, 7, ""), shared.ErrForbidden)
	require.NoError(t, Guard(ActionSubmit, admin, 7, ""))
}

func TestGuardReviewRequiresReviewerRole(t *testing.T) {
	user := shared.Actor{ID: 7, Role: shared.RoleUser}
	reviewer := shared.Actor{ID: 10, Role: shared.RoleReviewer}

	require.ErrorIs(t, Guard(ActionApprove, user, 7, ""), shared.ErrForbidden)
	require.NoError(t, Guard(ActionApprove, reviewer, 7, ""))
}

func TestGuardRejectRequiresReason(t *testing.T) {
	reviewer := shared.Actor{ID: 10, Role: shared.RoleReviewer}

	var validationErr *shared.ValidationError
	require.ErrorAs(t, Guard(ActionReject, reviewer, 7, ""), &validationErr)
	require.Equal(t, "reason", validationErr.Field)
	require.NoError(t, Guard(ActionReject, reviewer, 7, "missing packaging costs"))
}

func TestEditableStates(t *testing.T) {
	require.True(t, Editable(StatusDraft))
	require.True(t, Editable(StatusRejected))
	require.False(t, Editable(StatusSubmitted))
	require.False(t, Editable(StatusApproved))

	var stateErr *shared.InvalidStateError
	require.ErrorAs(t, EnsureEditable(StatusApproved), &stateErr)
	require.Equal(t, "edit", stateErr.Action)
}

func TestPromotionRequiresApproved(t *testing.T) {
	require.NoError(t, EnsurePromotable(StatusApproved))
	for _, status := range []Status{StatusDraft, StatusSubmitted, StatusRejected} {
		var stateErr *shared.InvalidStateError
		require.ErrorAs(t, EnsurePromotable(status), &stateErr)
		require.Equal(t, string(status), stateErr.Current)
	}
}

func TestEventActions(t *testing.T) {
	require.Equal(t, shared.ReviewSubmitted, EventAction(StatusDraft, ActionSubmit))
	require.Equal(t, shared.ReviewResubmitted, EventAction(StatusRejected, ActionSubmit))
	require.Equal(t, shared.ReviewApproved, EventAction(StatusSubmitted, ActionApprove))
	require.Equal(t, shared.ReviewRejected, EventAction(StatusSubmitted, ActionReject))
}
