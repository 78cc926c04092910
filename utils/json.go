package utils

import (
	"encoding/json"
)

// MarshalIndented is used for artifacts meant to be read by people (run reports).
func MarshalIndented[T any](input T) ([]byte, error) {
	return json.MarshalIndent(input, "", "  ")
}
