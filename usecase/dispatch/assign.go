package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/queueflow/backend/domain"
)

// suggestAssignee records the least-loaded active staff member as the
// suggested assignee for a fresh ticket. The suggestion is advisory: the
// ticket stays waiting and any staff member may still call it. Failures are
// logged and swallowed; registration never fails on assignment.
func (d *Dispatcher) suggestAssignee(ctx context.Context, ticket *domain.Ticket) {
	members, err := d.catalog.ListActiveStaff(ctx, ticket.DepartmentID)
	if err != nil || len(members) == 0 {
		if err != nil {
			d.logger.Warn("auto-assign roster lookup failed",
				zap.String("department_id", ticket.DepartmentID), zap.Error(err))
		}
		return
	}

	bestID := ""
	bestLoad := -1
	// members are sorted by id, so strict < keeps the lowest id on ties.
	for _, staff := range members {
		load, err := d.tickets.CountWorkload(ctx, staff.ID)
		if err != nil {
			d.logger.Warn("auto-assign workload lookup failed",
				zap.String("staff_id", staff.ID), zap.Error(err))
			return
		}
		if bestLoad < 0 || load < bestLoad {
			bestID = staff.ID
			bestLoad = load
		}
	}

	if err := d.tickets.SetSuggestedStaff(ctx, ticket.ID, bestID); err != nil {
		d.logger.Warn("auto-assign suggestion not stored",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	ticket.SuggestedStaffID = bestID
}
