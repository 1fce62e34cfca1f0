package workflow

import (
	"bitbucket.org/mmdatafocus/production_backend/config"
	"bitbucket.org/mmdatafocus/production_backend/models"
	"github.com/sirupsen/logrus"
)

type ProgressMetadata struct {
	Actor   string `json:"actor"`
	Remarks string `json:"remarks"`

	// Grade deltas for inspection floors. Added to the stored values; ignored elsewhere.
	// The completed delta itself counts as M1 there.
	M2Quantity int `json:"m2_quantity" validate:"gte=0"`
	M3Quantity int `json:"m3_quantity" validate:"gte=0"`
	M4Quantity int `json:"m4_quantity" validate:"gte=0"`
}

// applyProgress adds delta to the floor's completed counter. It validates everything first so a
// rejected update leaves the run untouched.
func applyProgress(r *articleRun, floor models.Floor, delta int, meta ProgressMetadata) error {
	if delta <= 0 || meta.M2Quantity < 0 || meta.M3Quantity < 0 || meta.M4Quantity < 0 {
		return ErrInvalidQuantity
	}
	idx := r.seq.IndexOf(floor)
	rec := r.record(floor)
	if idx < 0 || rec == nil {
		return ErrUnknownFloor
	}
	role := r.role(floor)

	// Upstream floors keep accepting work after the article moved on; floors ahead only
	// accept it once something has actually reached them.
	if idx > r.seq.IndexOf(r.article.CurrentFloor) && !rec.HasWork() {
		return ErrFloorNotReachable
	}
	if role.Inspection {
		if rec.Graded()+delta+meta.M2Quantity+meta.M3Quantity+meta.M4Quantity > rec.Received {
			return ErrExceedsReceived
		}
	} else if !role.First && rec.Completed+delta > rec.Received {
		return ErrExceedsReceived
	}

	if role.First && rec.Completed+delta > rec.Received {
		excess := rec.Completed + delta - rec.Received
		if rec.Completed > rec.Received {
			excess = delta
		}
		r.overproduction += excess
		r.logger.WithFields(logrus.Fields{
			"field":      "applyProgress",
			"article_id": r.article.ID,
			"floor":      floor,
			"received":   rec.Received,
			"completed":  rec.Completed + delta,
			"excess":     excess,
		}).Info("overproduction on first floor")
	}

	rec.Completed += delta
	if role.Inspection {
		// completed units on an inspection floor passed it
		rec.M1Quantity += delta
		rec.M2Quantity += meta.M2Quantity
		rec.M3Quantity += meta.M3Quantity
		rec.M4Quantity += meta.M4Quantity
	}
	rec.Recalculate(role)

	if floor == r.article.CurrentFloor {
		if r.article.FloorStartedAt == nil {
			started := r.now
			r.article.FloorStartedAt = &started
		}
		if meta.Remarks != "" {
			r.article.FloorRemarks = meta.Remarks
		}
	}
	r.emit(models.TransferKindProgress, floor, floor, delta, meta.Remarks)
	r.trace("progress applied", floor)
	return nil
}

func recordOverproduction(units int) {
	if units > 0 {
		config.OverproductionUnits.Add(float64(units))
	}
}
