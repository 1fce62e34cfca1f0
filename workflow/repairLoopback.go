package workflow

import (
	"fmt"

	"bitbucket.org/mmdatafocus/production_backend/models"
)

type RepairInput struct {
	// Quantity defaults to the floor's whole M2 balance.
	Quantity *int `json:"quantity"`
	// TargetFloor defaults to the floor before the source.
	TargetFloor models.Floor `json:"target_floor"`
	Remarks     string       `json:"remarks"`
	Actor       string       `json:"actor"`
}

type RepairSummary struct {
	FromFloor     models.Floor `json:"from_floor"`
	ToFloor       models.Floor `json:"to_floor"`
	Quantity      int          `json:"quantity"`
	M2Remaining   int          `json:"m2_remaining"`
	M2Transferred int          `json:"m2_transferred"`
}

// applyRepair sends repairable (M2) stock from an inspection floor back to an earlier floor.
// The source's completed and transferred counters are never touched.
func applyRepair(r *articleRun, source models.Floor, in RepairInput) (*RepairSummary, error) {
	if !source.IsInspection() || !r.seq.Contains(source) {
		return nil, ErrInvalidRepairSource
	}
	src := r.record(source)
	if src == nil {
		return nil, ErrInvalidRepairSource
	}

	qty := src.M2Quantity
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if qty <= 0 || qty > src.M2Quantity {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInvalidRepairQuantity, qty, src.M2Quantity)
	}

	target := in.TargetFloor
	if target == "" {
		prev, ok := r.seq.Previous(source)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no earlier floor", ErrInvalidTargetFloor, source)
		}
		target = prev
	} else if idx := r.seq.IndexOf(target); idx < 0 || idx >= r.seq.IndexOf(source) {
		return nil, fmt.Errorf("%w: %s is not before %s", ErrInvalidTargetFloor, target, source)
	}
	dst := r.record(target)
	if dst == nil {
		return nil, ErrInvalidTargetFloor
	}

	src.M2Quantity -= qty
	src.M2Transferred += qty
	src.RepairStatus = models.RepairStatusInRepair
	if in.Remarks != "" {
		src.RepairRemarks = in.Remarks
	}
	src.Recalculate(r.role(source))

	dst.Received += qty
	dst.RepairReceived += qty
	dst.Recalculate(r.role(target))
	reopenArticle(r)

	r.emit(models.TransferKindRepair, source, target, qty, in.Remarks)
	r.trace("repair sent", source)

	return &RepairSummary{
		FromFloor:     source,
		ToFloor:       target,
		Quantity:      qty,
		M2Remaining:   src.M2Quantity,
		M2Transferred: src.M2Transferred,
	}, nil
}
