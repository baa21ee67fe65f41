package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ringer/internal/ir"
)

// marshalInts converts a count list to canonical JSON TEXT for storage.
func marshalInts(v []int) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal counts: %w", err)
	}
	return string(data), nil
}

// marshalStrings converts a title list to canonical JSON TEXT for storage.
// Titles are NFC normalized on the way, so lookups by title are stable.
func marshalStrings(v []string) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal titles: %w", err)
	}
	return string(data), nil
}

func unmarshalInts(data string) ([]int, error) {
	out := []int{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal counts: %w", err)
	}
	return out, nil
}

func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal titles: %w", err)
	}
	return out, nil
}
