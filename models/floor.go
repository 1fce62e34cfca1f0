package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type Floor string

const (
	FloorKnitting          Floor = "Knitting"
	FloorLinking           Floor = "Linking"
	FloorChecking          Floor = "Checking"
	FloorWashing           Floor = "Washing"
	FloorBoarding          Floor = "Boarding"
	FloorSilicon           Floor = "Silicon"
	FloorSecondaryChecking Floor = "Secondary Checking"
	FloorBranding          Floor = "Branding"
	FloorFinalChecking     Floor = "Final Checking"
	FloorWarehouse         Floor = "Warehouse"
)

var (
	ErrUnknownFloorName = errors.New("unknown floor name")
	ErrDuplicateFloor   = errors.New("duplicate floor in sequence")
)

// DefaultFloorSequence is the fallback route when neither the product nor the override file defines one.
func DefaultFloorSequence() []Floor {
	return []Floor{
		FloorKnitting,
		FloorLinking,
		FloorChecking,
		FloorWashing,
		FloorBoarding,
		FloorSilicon,
		FloorSecondaryChecking,
		FloorBranding,
		FloorFinalChecking,
		FloorWarehouse,
	}
}

var floorRank = func() map[Floor]int {
	m := make(map[Floor]int)
	for i, f := range DefaultFloorSequence() {
		m[f] = i
	}
	return m
}()

// Rank orders floors globally; used for the order-level floor mirror. Unknown floors rank -1.
func (f Floor) Rank() int {
	r, ok := floorRank[f]
	if !ok {
		return -1
	}
	return r
}

func (f Floor) IsInspection() bool {
	return f == FloorChecking || f == FloorSecondaryChecking || f == FloorFinalChecking
}

func (f Floor) IsValid() bool {
	_, ok := floorRank[f]
	return ok
}

var aliasCleaner = regexp.MustCompile(`[^a-z0-9]+`)

func aliasKey(s string) string {
	return strings.Trim(aliasCleaner.ReplaceAllString(strings.ToLower(s), " "), " ")
}

// floorAliases maps normalized spellings seen on the shop floor to canonical names.
var floorAliases = map[string]Floor{
	"knitting":           FloorKnitting,
	"knit":               FloorKnitting,
	"linking":            FloorLinking,
	"link":               FloorLinking,
	"checking":           FloorChecking,
	"check":              FloorChecking,
	"first checking":     FloorChecking,
	"1st checking":       FloorChecking,
	"washing":            FloorWashing,
	"wash":               FloorWashing,
	"boarding":           FloorBoarding,
	"board":              FloorBoarding,
	"silicon":            FloorSilicon,
	"silicone":           FloorSilicon,
	"secondary checking": FloorSecondaryChecking,
	"second checking":    FloorSecondaryChecking,
	"2nd checking":       FloorSecondaryChecking,
	"sec checking":       FloorSecondaryChecking,
	"secondarychecking":  FloorSecondaryChecking,
	"branding":           FloorBranding,
	"brand":              FloorBranding,
	"final checking":     FloorFinalChecking,
	"finalchecking":      FloorFinalChecking,
	"final check":        FloorFinalChecking,
	"final qc":           FloorFinalChecking,
	"warehouse":          FloorWarehouse,
	"wh":                 FloorWarehouse,
	"store":              FloorWarehouse,
}

// NormalizeFloor resolves a user-supplied floor name (any case, spacing, underscores or dashes)
// to its canonical Floor.
func NormalizeFloor(name string) (Floor, error) {
	key := aliasKey(name)
	if f, ok := floorAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFloorName, name)
}

// NormalizeFloors resolves every name or fails on the first unknown one.
func NormalizeFloors(names []string) ([]Floor, error) {
	floors := make([]Floor, 0, len(names))
	seen := make(map[Floor]bool, len(names))
	for _, n := range names {
		f, err := NormalizeFloor(n)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFloor, f)
		}
		seen[f] = true
		floors = append(floors, f)
	}
	return floors, nil
}

// FloorRole captures where a floor sits in one article's sequence.
type FloorRole struct {
	First      bool
	Terminal   bool
	Inspection bool
}

// FloorSequence is one article's ordered route.
type FloorSequence []Floor

func (s FloorSequence) IndexOf(f Floor) int {
	for i, x := range s {
		if x == f {
			return i
		}
	}
	return -1
}

func (s FloorSequence) Contains(f Floor) bool {
	return s.IndexOf(f) >= 0
}

// Next returns the floor after f; ok is false for the terminal floor or an unknown floor.
func (s FloorSequence) Next(f Floor) (Floor, bool) {
	i := s.IndexOf(f)
	if i < 0 || i+1 >= len(s) {
		return "", false
	}
	return s[i+1], true
}

// Previous returns the floor before f; ok is false for the first floor or an unknown floor.
func (s FloorSequence) Previous(f Floor) (Floor, bool) {
	i := s.IndexOf(f)
	if i <= 0 {
		return "", false
	}
	return s[i-1], true
}

func (s FloorSequence) Role(f Floor) FloorRole {
	i := s.IndexOf(f)
	return FloorRole{
		First:      i == 0,
		Terminal:   i >= 0 && i == len(s)-1,
		Inspection: f.IsInspection(),
	}
}

// InspectionFloors returns the inspection floors of the sequence in route order.
func (s FloorSequence) InspectionFloors() []Floor {
	var out []Floor
	for _, f := range s {
		if f.IsInspection() {
			out = append(out, f)
		}
	}
	return out
}
