// Package testutil provides deterministic clocks, run IDs and small search
// parameter sets shared by the package tests.
package testutil

import "github.com/roach88/ringer/internal/ir"

// Method definitions used across tests.
var (
	PlainBobMinorMethod = ir.MethodSpec{
		Title: "Plain Bob Minor", Shorthand: "P", PlaceNotation: "x16x16x16,12", Stage: 6,
	}
	CambridgeMinorMethod = ir.MethodSpec{
		Title: "Cambridge Surprise Minor", Shorthand: "C", PlaceNotation: "x36x14x12x36x14x56,12", Stage: 6,
	}
	PlainBobMajorMethod = ir.MethodSpec{
		Title: "Plain Bob Major", Shorthand: "P", PlaceNotation: "x18x18x18x18,12", Stage: 8,
	}
)

// Spec returns search parameters with every default filled in, for the
// given length and methods.
func Spec(length ir.Length, methods ...ir.MethodSpec) *ir.SearchSpec {
	return &ir.SearchSpec{
		Length:       length,
		NumComps:     30,
		Methods:      methods,
		SpliceStyle:  ir.SpliceLeads,
		MethodCount:  ir.OpenRange(),
		BaseCalls:    ir.BaseCallsNear,
		BobWeight:    -1.8,
		SingleWeight: -2.5,
		StartStroke:  ir.Back,
		StartIndices: []int{0},
	}
}

// PlainBobMinor returns a one-method Plain Bob Minor search.
func PlainBobMinor(length ir.Length) *ir.SearchSpec {
	return Spec(length, PlainBobMinorMethod)
}

// SplicedMinor returns a Plain Bob and Cambridge Minor spliced search.
func SplicedMinor(length ir.Length) *ir.SearchSpec {
	return Spec(length, PlainBobMinorMethod, CambridgeMinorMethod)
}

// PlainBobMajor returns a one-method Plain Bob Major search.
func PlainBobMajor(length ir.Length) *ir.SearchSpec {
	return Spec(length, PlainBobMajorMethod)
}
