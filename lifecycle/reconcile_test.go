package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/reconciler"
)

func TestReconcileOne(t *testing.T) {
	f := newFixture(t)
	c := f.assigned(t)
	require.NoError(t, f.store.Cases().UpdateOne(f.ctx, c.ID, models.CaseUpdate{CurrentLawyer: models.StringPtr("")}))

	_, err := f.o.ReconcileOne(f.ctx, otherClient, c.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	res, err := f.o.ReconcileOne(f.ctx, client, c.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.Fixed)
	assert.True(t, res.Consistent)
	assert.Equal(t, lawyerA.UserID, res.Lawyer)
}

func TestReconcileAll_ScopesNonAdmins(t *testing.T) {
	f := newFixture(t)
	mine := f.assigned(t)
	theirs, err := f.o.CreateCase(f.ctx, otherClient, caseInput())
	require.NoError(t, err)
	a, err := f.o.CreateAssignment(f.ctx, otherClient, theirs.ID.Hex(), AssignmentInput{LawyerID: lawyerB.UserID})
	require.NoError(t, err)
	_, err = f.o.RespondToAssignment(f.ctx, lawyerB, a.ID.Hex(), AssignmentResponseInput{Accept: true})
	require.NoError(t, err)
	for _, c := range []*models.Case{mine, theirs} {
		require.NoError(t, f.store.Cases().UpdateOne(f.ctx, c.ID, models.CaseUpdate{CurrentLawyer: models.StringPtr("")}))
	}

	// only the owner's case is in scope, whatever scope is asked for
	res, err := f.o.ReconcileAll(f.ctx, client, reconciler.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalChecked)
	assert.Equal(t, 1, res.FixedCount)
	assert.Empty(t, f.reload(t, theirs).Details.CurrentLawyer)

	res, err = f.o.ReconcileAll(f.ctx, identity.System, reconciler.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalChecked)
	assert.Equal(t, 1, res.FixedCount)
	assert.Equal(t, lawyerB.UserID, f.reload(t, theirs).Details.CurrentLawyer)

	_, err = f.o.ReconcileAll(f.ctx, court, reconciler.Scope{})
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}
