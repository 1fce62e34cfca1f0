package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FloorSequenceOverrides maps a product code to the ordered floor names its articles pass through.
//
// File format (FLOOR_SEQUENCES_FILE):
//
//	products:
//	  SWEATER-BASIC: [Knitting, Linking, Checking, Washing, Final Checking, Warehouse]
//	  SCARF: [Knitting, Checking, Warehouse]
type FloorSequenceOverrides struct {
	Products map[string][]string `yaml:"products"`
}

var (
	floorOverrides     *FloorSequenceOverrides
	floorOverridesOnce sync.Once
	floorOverridesErr  error
)

// ParseFloorSequenceOverrides decodes the YAML document; product codes are upper-cased.
func ParseFloorSequenceOverrides(data []byte) (*FloorSequenceOverrides, error) {
	var raw FloorSequenceOverrides
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse floor sequences: %w", err)
	}
	out := &FloorSequenceOverrides{Products: make(map[string][]string, len(raw.Products))}
	for code, floors := range raw.Products {
		key := strings.ToUpper(strings.TrimSpace(code))
		if key == "" {
			continue
		}
		if len(floors) == 0 {
			return nil, fmt.Errorf("product %q has an empty floor sequence", code)
		}
		out.Products[key] = floors
	}
	return out, nil
}

// GetFloorSequenceOverrides loads FLOOR_SEQUENCES_FILE once. A missing env var yields an empty set.
func GetFloorSequenceOverrides() (*FloorSequenceOverrides, error) {
	floorOverridesOnce.Do(func() {
		path := strings.TrimSpace(os.Getenv("FLOOR_SEQUENCES_FILE"))
		if path == "" {
			floorOverrides = &FloorSequenceOverrides{Products: map[string][]string{}}
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			floorOverridesErr = fmt.Errorf("read floor sequences: %w", err)
			return
		}
		floorOverrides, floorOverridesErr = ParseFloorSequenceOverrides(data)
	})
	return floorOverrides, floorOverridesErr
}

// Lookup returns the override for a product code, if any.
func (o *FloorSequenceOverrides) Lookup(productCode string) ([]string, bool) {
	if o == nil {
		return nil, false
	}
	floors, ok := o.Products[strings.ToUpper(strings.TrimSpace(productCode))]
	return floors, ok
}
