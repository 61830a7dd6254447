// Package ocr reads receipt text with the Tesseract OCR engine.
//
// The engine is reached through gosseract/v2, which needs cgo and the
// Tesseract libraries:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Builds without cgo get a stub whose constructor reports the service as
// unavailable; callers then treat the receipt as unreadable.
//
// # Preprocessing
//
// Receipt photos are small, low-contrast and often curled. Each crop is read
// several times: as grayscale at every configured scale, and once binarized
// with an Otsu threshold after a median filter. The longest text wins, since
// the variants that fail tend to fail by dropping words rather than adding
// them.
//
// # Errors
//
// An image with no readable text is not an error; ExtractText returns "".
// Engine setup problems (missing language data, bad tessdata prefix) are
// reported as unavailable-service errors from the remote package.
package ocr
