package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future change of algorithm.
const (
	DomainComposition = "ringer/composition/v1"
	DomainSearch      = "ringer/search/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CompositionID computes the content-addressed ID of a composition. Two
// compositions with the same methods, start index, call string and length
// on the same part head share an ID, whichever run found them. The start
// index is the first row's position in its lead; snap starts at different
// indices share the call string "<".
//
// Scores are excluded: they depend on the music configuration, not on the
// composition itself.
func CompositionID(stage int, partHead string, methods []string, startIndex int, callString string, length int) (string, error) {
	obj := map[string]any{
		"stage":       stage,
		"part_head":   partHead,
		"methods":     methods,
		"start_index": startIndex,
		"call_string": callString,
		"length":      length,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CompositionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainComposition, canonical), nil
}

// MustCompositionID is like CompositionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCompositionID(stage int, partHead string, methods []string, startIndex int, callString string, length int) string {
	id, err := CompositionID(stage, partHead, methods, startIndex, callString, length)
	if err != nil {
		panic(err)
	}
	return id
}

// SearchHash fingerprints the parts of a SearchSpec that decide which
// compositions are valid, so archived runs of the same search can be grouped.
func SearchHash(spec *SearchSpec) (string, error) {
	methods := make([]any, len(spec.Methods))
	for i, m := range spec.Methods {
		methods[i] = map[string]any{
			"title":          m.Title,
			"place_notation": m.PlaceNotation,
			"stage":          m.Stage,
		}
	}
	obj := map[string]any{
		"length_min":   spec.Length.Min,
		"length_max":   spec.Length.Max,
		"methods":      methods,
		"splice_style": spec.SpliceStyle.String(),
		"base_calls":   spec.BaseCalls.String(),
		"part_head":    spec.PartHead,
		"allow_false":  spec.AllowFalse,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SearchHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSearch, canonical), nil
}
