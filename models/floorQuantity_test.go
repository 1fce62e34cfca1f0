package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFloorQuantity_RemainingByRole(t *testing.T) {
	cases := []struct {
		name string
		role FloorRole
		rec  FloorQuantity
		want int
	}{
		{"first floor overproduction", FloorRole{First: true}, FloorQuantity{Received: 1000, Completed: 1200, Transferred: 1200}, 0},
		{"first floor partial", FloorRole{First: true}, FloorQuantity{Received: 1000, Completed: 700, Transferred: 700}, 300},
		{"ordinary floor counts transfers", FloorRole{}, FloorQuantity{Received: 500, Completed: 400, Transferred: 100}, 400},
		{"inspection floor counts completed", FloorRole{Inspection: true}, FloorQuantity{Received: 1000, Completed: 200}, 800},
		{"inspection floor counts held grades", FloorRole{Inspection: true}, FloorQuantity{Received: 1000, Completed: 700, M2Quantity: 50, M3Quantity: 30, M4Quantity: 20}, 200},
		{"inspection floor counts units sent to repair", FloorRole{Inspection: true}, FloorQuantity{Received: 1100, Completed: 900, M2Transferred: 100, M3Quantity: 40}, 60},
		{"terminal floor counts completed", FloorRole{Terminal: true}, FloorQuantity{Received: 300, Completed: 100}, 200},
	}
	for _, tc := range cases {
		rec := tc.rec
		rec.Recalculate(tc.role)
		if rec.Remaining != tc.want {
			t.Fatalf("%s: remaining = %d, want %d", tc.name, rec.Remaining, tc.want)
		}
	}
}

func TestFloorQuantity_BacklogAndCompletion(t *testing.T) {
	insp := FloorRole{Inspection: true}
	rec := FloorQuantity{Received: 1000, Completed: 800, M1Quantity: 800, M1Transferred: 300, M3Quantity: 200}
	rec.Recalculate(insp)
	if got := rec.Backlog(insp); got != 500 {
		t.Fatalf("inspection backlog = %d, want 500", got)
	}
	if rec.IsComplete(insp) {
		t.Fatalf("inspection floor with untransferred M1 must not be complete")
	}
	rec.M1Transferred = 800
	if !rec.IsComplete(insp) {
		t.Fatalf("inspection floor with all M1 transferred must be complete")
	}
	rec.Received += 50
	rec.Recalculate(insp)
	if rec.IsComplete(insp) {
		t.Fatalf("inspection floor with ungraded units must not be complete")
	}

	ordinary := FloorQuantity{Received: 100, Completed: 100, Transferred: 60}
	ordinary.Recalculate(FloorRole{})
	if ordinary.IsComplete(FloorRole{}) {
		t.Fatalf("ordinary floor with backlog must not be complete")
	}
	ordinary.Transferred = 100
	ordinary.Recalculate(FloorRole{})
	if !ordinary.IsComplete(FloorRole{}) {
		t.Fatalf("ordinary floor fully transferred must be complete")
	}

	terminal := FloorQuantity{Received: 10, Completed: 10}
	if terminal.Backlog(FloorRole{Terminal: true}) != 0 {
		t.Fatalf("terminal floor never has backlog")
	}
	if (&FloorQuantity{}).IsComplete(FloorRole{First: true}) {
		t.Fatalf("a floor that received nothing is not complete")
	}
}

func TestArticle_ComputeProgressCapsAtPlanned(t *testing.T) {
	seq := FloorSequence{FloorKnitting, FloorLinking}
	a, err := NewArticleRecord("f", 1, NewArticle{ArticleNo: "A", PlannedQuantity: 1000}, seq)
	if err != nil {
		t.Fatalf("NewArticleRecord: %v", err)
	}
	a.Record(FloorKnitting).Completed = 1200
	a.Record(FloorLinking).Completed = 333
	want := decimal.RequireFromString("66.65")
	if got := a.ComputeProgress(seq); !got.Equal(want) {
		t.Fatalf("progress = %s, want %s", got, want)
	}
}

func TestNewArticleRecord_PrePopulatesRoute(t *testing.T) {
	seq := FloorSequence(DefaultFloorSequence())
	a, err := NewArticleRecord("f", 9, NewArticle{ArticleNo: "A-1", PlannedQuantity: 250}, seq)
	if err != nil {
		t.Fatalf("NewArticleRecord: %v", err)
	}
	if len(a.FloorQuantities) != len(seq) {
		t.Fatalf("expected %d floor records, got %d", len(seq), len(a.FloorQuantities))
	}
	first := a.Record(FloorKnitting)
	if first.Received != 250 || first.Remaining != 250 {
		t.Fatalf("first floor must receive the planned quantity, got %+v", *first)
	}
	if a.CurrentFloor != FloorKnitting || a.Status != ArticleStatusPending {
		t.Fatalf("unexpected initial state %s/%s", a.CurrentFloor, a.Status)
	}
	for i, rec := range a.FloorQuantities {
		if rec.Position != i || rec.Floor != seq[i] {
			t.Fatalf("record %d out of route order: %s at %d", i, rec.Floor, rec.Position)
		}
	}
	if _, err := NewArticleRecord("f", 9, NewArticle{PlannedQuantity: 1}, nil); err == nil {
		t.Fatalf("expected error for empty route")
	}
}

func TestArticle_CloneIsDeep(t *testing.T) {
	seq := FloorSequence{FloorKnitting, FloorLinking}
	a, _ := NewArticleRecord("f", 1, NewArticle{ArticleNo: "A", PlannedQuantity: 10}, seq)
	c := a.Clone()
	c.Record(FloorKnitting).Completed = 5
	if a.Record(FloorKnitting).Completed != 0 {
		t.Fatalf("clone shares floor records with the original")
	}
}

func TestFloorQuantity_TerminalInspectionFloorNeedsGrading(t *testing.T) {
	role := FloorRole{Inspection: true, Terminal: true}
	rec := FloorQuantity{Received: 100, Completed: 60, M1Quantity: 60}
	rec.Recalculate(role)
	if rec.IsComplete(role) {
		t.Fatalf("terminal inspection floor with 40 ungraded units must not be complete")
	}
	if rec.Backlog(role) != 0 {
		t.Fatalf("terminal inspection floor never pushes")
	}
	rec.M3Quantity = 40
	rec.Recalculate(role)
	if !rec.IsComplete(role) {
		t.Fatalf("terminal inspection floor with every unit graded must be complete")
	}
}
