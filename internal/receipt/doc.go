// Package receipt turns raw OCR text into canonical ingredients.
//
// Receipt text arrives garbled: characters go missing, words merge
// ("whiterice") or split ("sal mon"), quantities and prices are interleaved
// with item names. The Extractor normalizes each line, drops tokens that
// cannot be part of an ingredient name, and scores every registry term
// against short windows of the remaining tokens with an edit-distance
// similarity on a 0-100 scale. A term is accepted when its best window
// reaches the acceptance threshold (80 by default).
//
// Each canonical ingredient is reported at most once, with the best score
// seen for any of its terms on any line. Output follows registry order, so
// identical text always yields identical output.
//
// Text with no readable tokens is not an error. Extract returns an empty
// candidate set with OCRFailure set.
package receipt
