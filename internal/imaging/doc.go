// Package imaging provides the image plumbing shared by the bowl checker.
//
// It loads photos in every accepted format, crops and resizes them, encodes
// crops for storage or transmission, converts pixels to HSV, and produces the
// binary planes (bright mask, edge mask) and Laplacian responses the
// detection and segmentation packages score. All operations work with
// standard Go image.Image values and use a coordinate system where (0,0) is
// the top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left), Max is exclusive (bottom-right)
//
// Crops, resized images and masks are re-anchored at the origin.
//
// # Empty Images
//
// A region that could not be located is represented by Empty(), a zero-sized
// image, never by nil. IsEmpty reports both cases.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Color Representation
//
// HSV values use hue in degrees (0-360) and saturation/value in [0, 1], as
// produced by go-colorful. Hex colors are "#rrggbb".
//
// # Formats
//
// PNG, JPEG, GIF, BMP, TIFF and WebP are decoded. Crops are written as JPEG.
package imaging
