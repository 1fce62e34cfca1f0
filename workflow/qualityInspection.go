package workflow

import (
	"fmt"

	"bitbucket.org/mmdatafocus/production_backend/models"
)

// InspectionInput records grading results. Floor may be empty to let the engine pick the
// inspection floor with outstanding work.
type InspectionInput struct {
	Floor         models.Floor        `json:"floor"`
	M1Quantity    int                 `json:"m1_quantity"`
	M2Quantity    int                 `json:"m2_quantity"`
	M3Quantity    int                 `json:"m3_quantity"`
	M4Quantity    int                 `json:"m4_quantity"`
	RepairStatus  models.RepairStatus `json:"repair_status"`
	RepairRemarks string              `json:"repair_remarks"`
	Actor         string              `json:"actor"`
	Remarks       string              `json:"remarks"`
}

// selectInspectionFloor picks the inspection floor with the most remaining work, then the one
// that received the most. Ties go to the earlier floor in the route.
func selectInspectionFloor(r *articleRun) (models.Floor, error) {
	var best models.Floor
	bestRemaining := 0
	for _, f := range r.seq.InspectionFloors() {
		if rec := r.record(f); rec != nil && rec.Remaining > bestRemaining {
			best, bestRemaining = f, rec.Remaining
		}
	}
	if best != "" {
		return best, nil
	}
	bestReceived := 0
	for _, f := range r.seq.InspectionFloors() {
		if rec := r.record(f); rec != nil && rec.Received > bestReceived {
			best, bestReceived = f, rec.Received
		}
	}
	if best == "" {
		return "", ErrNoInspectionWorkAvailable
	}
	return best, nil
}

// applyInspection folds M1 into completed, replaces the M2..M4 balances and pushes the
// untransferred M1 forward. It returns the inspected floor.
func applyInspection(r *articleRun, in InspectionInput) (models.Floor, error) {
	floor := in.Floor
	if floor == "" {
		selected, err := selectInspectionFloor(r)
		if err != nil {
			return "", err
		}
		floor = selected
	} else if !floor.IsInspection() || !r.seq.Contains(floor) {
		return "", fmt.Errorf("%w: %s is not an inspection floor of this article", ErrInvalidTargetFloor, floor)
	}
	if in.M1Quantity < 0 || in.M2Quantity < 0 || in.M3Quantity < 0 || in.M4Quantity < 0 {
		return "", ErrInvalidQuantity
	}
	rec := r.record(floor)
	if rec == nil {
		return "", ErrUnknownFloor
	}
	// M2..M4 are replaced, so the new balances are checked together with the folded M1.
	if rec.Completed+rec.M2Transferred+in.M1Quantity+in.M2Quantity+in.M3Quantity+in.M4Quantity > rec.Received {
		return "", ErrExceedsReceived
	}
	role := r.role(floor)

	rec.M1Quantity += in.M1Quantity
	rec.Completed += in.M1Quantity
	rec.M2Quantity = in.M2Quantity
	rec.M3Quantity = in.M3Quantity
	rec.M4Quantity = in.M4Quantity
	if in.RepairStatus != "" {
		rec.RepairStatus = in.RepairStatus
	}
	if in.RepairRemarks != "" {
		rec.RepairRemarks = in.RepairRemarks
	}
	rec.Recalculate(role)

	r.emit(models.TransferKindQuality, floor, floor, in.M1Quantity,
		fmt.Sprintf("m1=%d m2=%d m3=%d m4=%d", in.M1Quantity, in.M2Quantity, in.M3Quantity, in.M4Quantity))
	r.trace("inspection applied", floor)

	propagate(r, floor, in.Remarks)
	return floor, nil
}
