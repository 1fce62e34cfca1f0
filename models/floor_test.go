package models

import (
	"errors"
	"testing"
)

func TestNormalizeFloor_Aliases(t *testing.T) {
	cases := map[string]Floor{
		"Knitting":           FloorKnitting,
		"KNIT":               FloorKnitting,
		"  linking ":         FloorLinking,
		"1st-checking":       FloorChecking,
		"Silicone":           FloorSilicon,
		"secondary_checking": FloorSecondaryChecking,
		"SecondaryChecking":  FloorSecondaryChecking,
		"2nd checking":       FloorSecondaryChecking,
		"sec. checking":      FloorSecondaryChecking,
		"Final QC":           FloorFinalChecking,
		"final-checking":     FloorFinalChecking,
		"WH":                 FloorWarehouse,
	}
	for in, want := range cases {
		got, err := NormalizeFloor(in)
		if err != nil {
			t.Fatalf("NormalizeFloor(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeFloor(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := NormalizeFloor("dyeing"); !errors.Is(err, ErrUnknownFloorName) {
		t.Fatalf("expected ErrUnknownFloorName, got %v", err)
	}
}

func TestNormalizeFloors_RejectsDuplicates(t *testing.T) {
	if _, err := NormalizeFloors([]string{"knit", "Knitting"}); !errors.Is(err, ErrDuplicateFloor) {
		t.Fatalf("expected duplicate floor error")
	}
	floors, err := NormalizeFloors([]string{"knit", "check", "wh"})
	if err != nil {
		t.Fatalf("NormalizeFloors: %v", err)
	}
	if len(floors) != 3 || floors[2] != FloorWarehouse {
		t.Fatalf("unexpected floors %v", floors)
	}
}

func TestFloorSequence_Navigation(t *testing.T) {
	seq := FloorSequence{FloorKnitting, FloorChecking, FloorWarehouse}

	if next, ok := seq.Next(FloorKnitting); !ok || next != FloorChecking {
		t.Fatalf("Next(Knitting) = %s, %v", next, ok)
	}
	if _, ok := seq.Next(FloorWarehouse); ok {
		t.Fatalf("terminal floor must have no next floor")
	}
	if _, ok := seq.Previous(FloorKnitting); ok {
		t.Fatalf("first floor must have no previous floor")
	}
	if prev, ok := seq.Previous(FloorWarehouse); !ok || prev != FloorChecking {
		t.Fatalf("Previous(Warehouse) = %s, %v", prev, ok)
	}
	if _, ok := seq.Next(FloorLinking); ok {
		t.Fatalf("floor outside the sequence must have no next floor")
	}

	if r := seq.Role(FloorKnitting); !r.First || r.Terminal || r.Inspection {
		t.Fatalf("unexpected role for Knitting: %+v", r)
	}
	if r := seq.Role(FloorChecking); r.First || r.Terminal || !r.Inspection {
		t.Fatalf("unexpected role for Checking: %+v", r)
	}
	if r := seq.Role(FloorWarehouse); !r.Terminal {
		t.Fatalf("unexpected role for Warehouse: %+v", r)
	}
	if got := seq.InspectionFloors(); len(got) != 1 || got[0] != FloorChecking {
		t.Fatalf("unexpected inspection floors %v", got)
	}
}

func TestFloorRank_FollowsDefaultRoute(t *testing.T) {
	prev := -1
	for _, f := range DefaultFloorSequence() {
		if f.Rank() <= prev {
			t.Fatalf("rank of %s is not increasing", f)
		}
		prev = f.Rank()
	}
	if Floor("Dyeing").Rank() != -1 || Floor("Dyeing").IsValid() {
		t.Fatalf("unknown floors must rank -1")
	}
}
