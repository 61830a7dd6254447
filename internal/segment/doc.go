// Package segment splits a combined photo into a receipt region and a bowl
// region.
//
// # Paper Detection
//
// The photo is downscaled to a working size, converted into a bright mask
// and an edge mask, and handed to detection.DetectPaperRegions. The best
// paper region becomes the receipt when its confidence reaches the minimum.
// The bowl is the largest strip of the frame left beside, above or below the
// receipt.
//
// # Fallback
//
// When no region is confident enough, the frame is split along its longer
// axis at a fixed ratio. The side with the higher texture score (sharp,
// bright content) is taken as the receipt. The result is marked Fallback and
// carries a low confidence.
//
// # Degenerate Input
//
// Segment never fails. Images too small to split yield the whole image as the
// receipt region and an empty bowl region. Neither region is ever nil.
package segment
