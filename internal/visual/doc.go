// Package visual proposes the ingredients visible in a bowl image.
//
// Two strategies produce candidates. When a vision classifier is configured
// the bowl is sent to it together with the registry vocabulary and, when
// available, the ingredients read from the receipt. If the classifier is
// missing, exhausts its retries or answers with something unusable, the
// detector falls back to a local color heuristic: each registry ingredient
// with a color signature is scored by the share of bowl pixels inside that
// signature.
//
// Ingredients with overlapping signatures (salmon and tuna, or the white
// toppings) are all reported. Deciding between them is left to the
// reconciliation step, which has the receipt to go on.
//
// Candidates are always ranked by confidence, highest first, with ties in
// registry order so that identical inputs give identical output.
package visual
