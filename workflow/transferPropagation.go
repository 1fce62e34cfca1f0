package workflow

import (
	"bitbucket.org/mmdatafocus/production_backend/models"
)

// pushFloor moves the floor's untransferred output into the next floor's received counter and
// returns the amount moved. The amount added downstream always equals the backlog removed
// upstream. The first floor forwards everything it completed, overproduction included.
func pushFloor(r *articleRun, floor models.Floor, remarks string) int {
	role := r.role(floor)
	next, ok := r.seq.Next(floor)
	if !ok || role.Terminal {
		return 0
	}
	src := r.record(floor)
	dst := r.record(next)
	if src == nil || dst == nil {
		return 0
	}
	delta := src.Backlog(role)
	if delta <= 0 {
		return 0
	}

	if role.Inspection {
		src.M1Transferred += delta
		src.Transferred = src.M1Transferred
	} else {
		src.Transferred += delta
	}
	src.Recalculate(role)

	dst.Received += delta
	dst.Recalculate(r.role(next))

	r.emit(models.TransferKindTransfer, floor, next, delta, remarks)
	r.trace("pushed", floor)
	return delta
}

// propagate pushes the floor that was just handled, then sweeps the rest of the route.
//
// Default: ascending passes over every floor until a full pass moves nothing, so work that
// lands on a floor during the sweep keeps flowing in the same call.
// Single pass: one ascending pass over the floors before the current floor, skipping handled.
func propagate(r *articleRun, handled models.Floor, remarks string) int {
	moved := pushFloor(r, handled, remarks)

	if r.singlePass {
		cur := r.seq.IndexOf(r.article.CurrentFloor)
		for i := 0; i < cur && i < len(r.seq); i++ {
			if r.seq[i] == handled {
				continue
			}
			moved += pushFloor(r, r.seq[i], "backlog sweep")
		}
		return moved
	}

	for {
		pass := 0
		for _, f := range r.seq {
			pass += pushFloor(r, f, "backlog sweep")
		}
		if pass == 0 {
			return moved
		}
		moved += pass
	}
}
