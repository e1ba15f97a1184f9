package reconciler

import "github.com/linesmerrill/legal-case-api/models"

// repairPlan is the outcome of evaluating a case against its assignments, before any write
type repairPlan struct {
	lawyer string
	// status is the new case status, empty when unchanged
	status         string
	accept         *models.LawyerAssignment
	acceptResponse string
	actions        []string
	consistent     bool
}

func (p repairPlan) statusOr(current string) string {
	if p.status != "" {
		return p.status
	}
	return current
}

func (p repairPlan) changes(c models.CaseDetails) bool {
	return p.accept != nil || p.status != "" || p.lawyer != c.CurrentLawyer
}

// planRepair applies the repair rules to a case. assignments must be ordered newest first.
func planRepair(c models.CaseDetails, assignments []models.LawyerAssignment) repairPlan {
	p := repairPlan{lawyer: c.CurrentLawyer}
	latestAccepted := firstWith(assignments, func(a models.LawyerAssignment) bool {
		return a.Status == models.AssignmentAccepted
	})

	switch {
	case models.RequiresLawyer(c.Status) && c.CurrentLawyer == "":
		planMissingLawyer(&p, c, assignments, latestAccepted)
	case c.CurrentLawyer != "" && latestAccepted != nil && !hasAccepted(assignments, c.CurrentLawyer):
		// currentLawyer points at a lawyer with no accepted assignment
		p.lawyer = latestAccepted.LawyerID
		p.actions = append(p.actions, ActionRealigned)
	}

	planTheftGuard(&p, assignments)

	if len(p.actions) == 0 {
		p.actions = []string{ActionNone}
	}
	p.consistent = satisfied(p.statusOr(c.Status), p.lawyer, assignments, p.accept)
	return p
}

func planMissingLawyer(p *repairPlan, c models.CaseDetails, assignments []models.LawyerAssignment, latestAccepted *models.LawyerAssignment) {
	if latestAccepted != nil {
		p.lawyer = latestAccepted.LawyerID
		p.actions = append(p.actions, ActionFromAccepted)
		return
	}

	if c.Status == models.CaseStatusLawyerAssigned && len(assignments) > 0 {
		latest := assignments[0]
		p.accept = &latest
		p.acceptResponse = forcedAcceptResponse
		p.lawyer = latest.LawyerID
		p.actions = append(p.actions, ActionForcedAccept)
		return
	}

	if c.Status == models.CaseStatusHearingScheduled {
		if pending := firstWith(assignments, func(a models.LawyerAssignment) bool {
			return a.Status == models.AssignmentPending
		}); pending != nil {
			p.accept = pending
			p.acceptResponse = pendingAcceptResponse
			p.lawyer = pending.LawyerID
			p.status = models.CaseStatusLawyerAssigned
			p.actions = append(p.actions, ActionAcceptedPending)
			return
		}
	}

	p.actions = append(p.actions, ActionUnfixable)
}

// planTheftGuard restores a human-made accepted assignment when an automated one has taken
// its place. It runs after every other rule and wins over them.
func planTheftGuard(p *repairPlan, assignments []models.LawyerAssignment) {
	if len(assignments) < 2 || p.lawyer == "" {
		return
	}
	human := firstWith(assignments, func(a models.LawyerAssignment) bool {
		return a.Status == models.AssignmentAccepted && a.HumanOriginated()
	})
	if human == nil || human.LawyerID == p.lawyer {
		return
	}
	fromSystem := firstWith(assignments, func(a models.LawyerAssignment) bool {
		return a.LawyerID == p.lawyer && a.AssignedBy == models.AssignedBySystem
	})
	if fromSystem == nil {
		return
	}
	p.lawyer = human.LawyerID
	p.actions = append(p.actions, ActionTheftGuard)
}

// satisfied reports whether a case in status with currentLawyer lawyer meets the lawyer invariant
func satisfied(status, lawyer string, assignments []models.LawyerAssignment, accepting *models.LawyerAssignment) bool {
	if !models.RequiresLawyer(status) {
		return true
	}
	if lawyer == "" {
		return false
	}
	if accepting != nil && accepting.LawyerID == lawyer {
		return true
	}
	return hasAccepted(assignments, lawyer)
}

func hasAccepted(assignments []models.LawyerAssignment, lawyerID string) bool {
	return firstWith(assignments, func(a models.LawyerAssignment) bool {
		return a.Status == models.AssignmentAccepted && a.LawyerID == lawyerID
	}) != nil
}

func firstWith(assignments []models.LawyerAssignment, match func(models.LawyerAssignment) bool) *models.LawyerAssignment {
	for i := range assignments {
		if match(assignments[i]) {
			a := assignments[i]
			return &a
		}
	}
	return nil
}
