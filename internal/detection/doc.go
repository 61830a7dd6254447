// Package detection locates printed paper in a photo.
//
// A receipt lying next to a food bowl photographs as a bright, rectangular
// blob whose interior is broken up by dark lines of print. This package turns
// that observation into scores that the segmenter can rank.
//
// # Paper Regions
//
// DetectPaperRegions works on two binary planes produced by the imaging
// package: a bright mask and an edge mask of the same size.
//
//  1. Component Finding: 8-connected flood-fill over the bright mask
//  2. Size Filtering: bounding boxes outside the configured area fraction
//     are dropped
//  3. Rectangularity: row-span fill of the component inside its box
//  4. Print Check: edge density inside the box, inset so the outline of the
//     paper is not counted as print
//
// # Texture Scores
//
// When no paper outline can be found, TextureScore ranks arbitrary regions by
// Laplacian variance and brightness. A sharp, bright region is more likely to
// be paper with print than a glossy bowl of food.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Confidence Scores
//
// Confidence values range from 0.0 to 1.0:
//   - 1.0 = Clearly rectangular and densely printed
//   - 0.0 = Round, irregular, or blank
package detection
