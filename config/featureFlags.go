package config

import (
	"os"
	"strings"
)

func envTrue(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// PropagationSinglePass restores the legacy backlog sweep: one ascending pass over the floors
// before the current floor per request. Floors that complete because of that pass wait for the
// next request before pushing forward.
//
// Set via env:
// - PROPAGATION_SINGLE_PASS=true
func PropagationSinglePass() bool {
	return envTrue("PROPAGATION_SINGLE_PASS")
}

// DebugFloorEngine logs every counter mutation at info level.
//
// Set via env:
// - DEBUG_FLOOR_ENGINE=true
func DebugFloorEngine() bool {
	return envTrue("DEBUG_FLOOR_ENGINE")
}
