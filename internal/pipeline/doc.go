// Package pipeline runs bowl verification for one photo or a batch.
//
// A run segments the photo, then reads the receipt and looks at the bowl in
// parallel, and finally reconciles the two ingredient lists:
//
//	segment ─┬─ OCR → receipt extraction ─┬─ reconcile
//	         └─ visual detection ─────────┘
//
// External calls (OCR, vision) are retried with the configured policy. A
// failure on one side never cancels the other: failed OCR becomes empty
// receipt text and a failed vision call becomes the color heuristic. The
// only per-photo error is reconcile.ErrInsufficientData, and in a batch it
// affects only that photo.
//
// When BiasWithReceipt is set the visual side waits for the receipt side so
// the vision service can be told what was ordered.
package pipeline
