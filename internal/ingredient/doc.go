// Package ingredient holds the canonical ingredient registry shared by the
// receipt extractor, the visual detector and the reconciliation matcher.
//
// # Canonical Names
//
// Every ingredient is identified by a Name: the registry's canonical key for
// it. Canonical keys are produced by Canonicalize, which applies Unicode NFKC
// normalization, lowercases, strips punctuation, collapses whitespace and
// singularizes each word. Two strings that canonicalize to the same key, or
// that resolve through the same alias, are the same ingredient everywhere
// downstream.
//
// Strings that do not resolve through the registry never become ingredients.
// Callers drop them.
//
// # Color Signatures
//
// An entry may carry a ColorSignature: an HSV range (hue in degrees 0-360,
// saturation and value 0-1) used by the local heuristic detector. Hue ranges
// whose minimum exceeds their maximum wrap through 0 degrees (reds).
// Signatures of different entries may overlap; the detector emits every
// matching entry and leaves disambiguation to the matcher.
//
// # Thread Safety
//
// A Registry is immutable once built and safe for concurrent use. Load it once
// at process start and pass it explicitly to each component.
package ingredient
