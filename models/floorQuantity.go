package models

import "time"

// FloorQuantity is the counter bucket for one floor of one article.
//
// Received, Completed and Transferred are cumulative. Remaining and M1Remaining are derived and
// only ever written by Recalculate.
type FloorQuantity struct {
	ID          int    `gorm:"primary_key" json:"id"`
	FactoryId   string `gorm:"index;size:64;not null" json:"factory_id"`
	ArticleId   int    `gorm:"uniqueIndex:idx_article_floor;not null" json:"article_id"`
	Floor       Floor  `gorm:"uniqueIndex:idx_article_floor;size:64;not null" json:"floor"`
	Position    int    `gorm:"not null;default:0" json:"position"`
	Received    int    `gorm:"not null;default:0" json:"received"`
	Completed   int    `gorm:"not null;default:0" json:"completed"`
	Transferred int    `gorm:"not null;default:0" json:"transferred"`
	Remaining   int    `gorm:"not null;default:0" json:"remaining"`

	M1Quantity     int          `gorm:"not null;default:0" json:"m1_quantity"`
	M2Quantity     int          `gorm:"not null;default:0" json:"m2_quantity"`
	M3Quantity     int          `gorm:"not null;default:0" json:"m3_quantity"`
	M4Quantity     int          `gorm:"not null;default:0" json:"m4_quantity"`
	M1Transferred  int          `gorm:"not null;default:0" json:"m1_transferred"`
	M1Remaining    int          `gorm:"not null;default:0" json:"m1_remaining"`
	M2Transferred  int          `gorm:"not null;default:0" json:"m2_transferred"`
	RepairReceived int          `gorm:"not null;default:0" json:"repair_received"`
	RepairStatus   RepairStatus `gorm:"type:enum('None','Pending','InRepair','Repaired');default:None" json:"repair_status"`
	RepairRemarks  string       `gorm:"size:500" json:"repair_remarks"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Recalculate refreshes the derived counters for the floor's role in the article's sequence.
// On inspection floors Remaining is the ungraded balance.
func (q *FloorQuantity) Recalculate(role FloorRole) {
	switch {
	case role.Inspection:
		q.Remaining = nonNegative(q.Received - q.Graded())
	case role.First || role.Terminal:
		q.Remaining = nonNegative(q.Received - q.Completed)
	default:
		q.Remaining = nonNegative(q.Received - q.Transferred)
	}
	q.M1Remaining = nonNegative(q.M1Quantity - q.M1Transferred)
}

// Graded counts the units of an inspection floor that already carry a grade, including M2 units
// sent back for repair. Reworked units come back as new Received.
func (q *FloorQuantity) Graded() int {
	return q.Completed + q.M2Quantity + q.M2Transferred + q.M3Quantity + q.M4Quantity
}

// Backlog is the quantity a push would move to the next floor.
// Inspection floors only forward graded-good (M1) output.
func (q *FloorQuantity) Backlog(role FloorRole) int {
	if role.Terminal {
		return 0
	}
	if role.Inspection {
		return nonNegative(q.M1Quantity - q.M1Transferred)
	}
	return nonNegative(q.Completed - q.Transferred)
}

// IsComplete reports whether the floor has reached FloorComplete.
// An inspection floor is complete once every unit is graded and its M1 output has moved on; a
// route ending on an inspection floor only needs the grading.
func (q *FloorQuantity) IsComplete(role FloorRole) bool {
	switch {
	case role.Inspection:
		if q.Received <= 0 || q.M1Quantity <= 0 || q.Graded() < q.Received {
			return false
		}
		return role.Terminal || q.M1Transferred >= q.M1Quantity
	case role.Terminal, role.First:
		return q.Received > 0 && q.Completed >= q.Received && q.Remaining == 0
	default:
		return q.Received > 0 && q.Completed == q.Received && q.Remaining == 0
	}
}

// HasWork reports whether anything has ever reached or happened on the floor.
func (q *FloorQuantity) HasWork() bool {
	return q.Received != 0 || q.Completed != 0 || q.Remaining != 0
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
