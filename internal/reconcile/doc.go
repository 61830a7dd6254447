// Package reconcile cross-references receipt and visual ingredient candidates.
//
// Given the ingredients read from a receipt (R) and those seen in the bowl
// (V), the matcher classifies every ingredient as matched (R ∩ V), missing
// (R − V) or unexpected (V − R) and reports the share of receipt
// ingredients that were seen. A result with no receipt evidence has no match
// percentage and is flagged receipt-less; it is never reported as 0% or 100%.
//
// Only the case where both inputs are empty is an error (ErrInsufficientData).
package reconcile
