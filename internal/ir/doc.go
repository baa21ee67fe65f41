// Package ir holds the normalized types shared by every other ringer
// package: the SearchSpec produced by the compiler, the setup error taxonomy,
// and content-addressed identity for compositions.
//
// All other internal packages may import ir; ir imports nothing internal.
package ir
