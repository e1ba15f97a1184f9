package lifecycle

import (
	"context"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/models"
)

func isOwner(caller identity.Caller, c *models.Case) bool {
	return caller.UserType == models.UserTypeClient && caller.UserID == c.Details.UserID
}

func isCurrentLawyer(caller identity.Caller, c *models.Case) bool {
	return caller.UserType == models.UserTypeLawyer && c.Details.CurrentLawyer != "" && caller.UserID == c.Details.CurrentLawyer
}

func isStaff(caller identity.Caller) bool {
	return caller.Is(models.UserTypeAdmin, models.UserTypeCourt, models.UserTypeSystem)
}

func denied(caller identity.Caller, c *models.Case) error {
	return apperrors.AccessDeniedf("user %s may not perform this action on case %s", caller.UserID, c.ID.Hex())
}

func requireOwner(caller identity.Caller, c *models.Case) error {
	if isOwner(caller, c) {
		return nil
	}
	return denied(caller, c)
}

func requireOwnerOrAdmin(caller identity.Caller, c *models.Case) error {
	if isOwner(caller, c) || caller.Is(models.UserTypeAdmin) {
		return nil
	}
	return denied(caller, c)
}

func requireCurrentLawyer(caller identity.Caller, c *models.Case) error {
	if isCurrentLawyer(caller, c) || caller.Is(models.UserTypeAdmin) {
		return nil
	}
	return denied(caller, c)
}

func requireCourt(caller identity.Caller, c *models.Case) error {
	if caller.Is(models.UserTypeCourt, models.UserTypeAdmin) {
		return nil
	}
	return denied(caller, c)
}

func requireCourtOrLawyer(caller identity.Caller, c *models.Case) error {
	if isCurrentLawyer(caller, c) || caller.Is(models.UserTypeCourt, models.UserTypeAdmin) {
		return nil
	}
	return denied(caller, c)
}

// canView also lets a lawyer see a case that was proposed to them
func (o *Orchestrator) canView(ctx context.Context, caller identity.Caller, c *models.Case) (bool, error) {
	if isStaff(caller) || isOwner(caller, c) || isCurrentLawyer(caller, c) {
		return true, nil
	}
	if caller.UserType != models.UserTypeLawyer {
		return false, nil
	}
	assignments, err := o.assignments.FindByCase(ctx, c.ID.Hex(), "")
	if err != nil {
		return false, err
	}
	for _, a := range assignments {
		if a.LawyerID == caller.UserID {
			return true, nil
		}
	}
	return false, nil
}

func (o *Orchestrator) requireViewer(ctx context.Context, caller identity.Caller, c *models.Case) error {
	ok, err := o.canView(ctx, caller, c)
	if err != nil {
		return err
	}
	if !ok {
		return denied(caller, c)
	}
	return nil
}
